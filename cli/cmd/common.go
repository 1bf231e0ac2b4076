package cmd

import (
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	chocoflowcli "github.com/justapithecus/chocoflow/cli"
	"github.com/justapithecus/chocoflow/config"
	"github.com/justapithecus/chocoflow/types"
	"github.com/justapithecus/chocoflow/validate"
)

const defaultInstallRoot = `C:\ProgramData\chocoflow`

// operationFlags are the flags shared by install, upgrade, and uninstall —
// the three commands that drive a per-package pipeline through the
// coordinator.
func operationFlags() []cli.Flag {
	return append(ReadOnlyFlags(),
		&cli.StringFlag{Name: "source", Usage: "Source kind/locator to dispatch to (normal, windowsfeature, cygwin, ...)"},
		&cli.StringFlag{Name: "version", Usage: "Package version constraint"},
		&cli.StringFlag{Name: "install-arguments", Usage: "Arguments passed to the native installer"},
		&cli.StringFlag{Name: "package-parameters", Usage: "Package-specific parameters"},
		&cli.StringFlag{Name: "user", Usage: "Source credential user"},
		&cli.StringFlag{Name: "password", Usage: "Source credential password"},
		&cli.StringFlag{Name: "cert", Usage: "Source credential client certificate path"},
		&cli.StringFlag{Name: "cert-password", Usage: "Source credential certificate password"},
		&cli.StringFlag{Name: "cache-location", Usage: "Scratch directory for the scripting host bootstrap"},
		&cli.StringFlag{Name: "install-root", Usage: "Top-level chocoflow install directory", Value: defaultInstallRoot},
		&cli.StringFlag{Name: "config", Usage: "Path to a chocoflow.yaml defaults file"},
		&cli.BoolFlag{Name: "force", Usage: "Force the operation, overwriting prior state"},
		&cli.BoolFlag{Name: "pre", Usage: "Allow prerelease versions"},
		&cli.BoolFlag{Name: "allow-downgrade", Usage: "Allow installing an older version than what is present"},
		&cli.BoolFlag{Name: "allow-multiple-versions", Usage: "Allow side-by-side installs of multiple versions"},
		&cli.BoolFlag{Name: "stop-on-first-failure", Usage: "Abort the whole command on the first package failure"},
		&cli.BoolFlag{Name: "exit-on-reboot-detected", Usage: "Exit immediately when a package signals a pending reboot"},
		&cli.BoolFlag{Name: "use-enhanced-exit-codes", Usage: "Use enhanced exit codes (2 = outdated packages found)"},
		&cli.BoolFlag{Name: "skip-scripts", Usage: "Skip package install/uninstall PowerShell scripts"},
		&cli.BoolFlag{Name: "x86", Usage: "Force the 32-bit variant even on a 64-bit target"},
		&cli.BoolFlag{Name: "y", Aliases: []string{"yes"}, Usage: "Answer yes to confirmation prompts (non-interactive)"},
		&cli.BoolFlag{Name: "checksum-required", Usage: "Fail a download with no published checksum"},
		&cli.BoolFlag{Name: "allow-empty-checksums", Usage: "Allow a missing checksum on a non-HTTPS download"},
		&cli.BoolFlag{Name: "allow-empty-checksums-secure", Usage: "Allow a missing checksum on an HTTPS download only"},
		&cli.BoolFlag{Name: "accept-license", Usage: "Auto-accept any package license prompt"},
		&cli.BoolFlag{Name: "log-environment-values", Usage: "Disable [redacted] substitution for logged environment values"},
		&cli.BoolFlag{Name: "use-system-powershell", Usage: "Invoke the system powershell.exe instead of the bundled host"},
		&cli.BoolFlag{Name: "ignore-detected-reboot", Usage: "Do not treat a pending reboot as blocking"},
		&cli.BoolFlag{Name: "disable-repository-optimizations", Usage: "Disable source-side query optimizations"},
		&cli.BoolFlag{Name: "lock-transactional-install-files", Usage: "Hold the pending marker lock for the full install transaction"},
		&cli.BoolFlag{Name: "remove-package-information-on-uninstall", Usage: "Delete the persisted PackageInformation record on uninstall"},
	)
}

// buildConfiguration assembles a types.Configuration for commandName from
// c's positional package-name argument and flags, overlaid with a
// chocoflow.yaml file when --config names one. CLI flags always take the
// final word, per config.Config.ApplyDefaults's contract.
func buildConfiguration(c *cli.Context, commandName string) (*types.Configuration, *config.Config, error) {
	packageNames := strings.Join(c.Args().Slice(), ";")
	if packageNames != "" {
		if err := validate.Validate(packageNames); err != nil {
			return nil, nil, err
		}
	}

	cfg := &types.Configuration{
		CommandName:       commandName,
		OperationID:       uuid.NewString(),
		PackageNames:      packageNames,
		SourceType:        c.String("source"),
		Version:           c.String("version"),
		InstallArguments:  c.String("install-arguments"),
		PackageParameters: c.String("package-parameters"),
		CacheLocation:     c.String("cache-location"),
		Credentials: types.Credentials{
			User:         c.String("user"),
			Password:     c.String("password"),
			Cert:         c.String("cert"),
			CertPassword: c.String("cert-password"),
		},
		Platform: types.PlatformInfo{
			IsWindows: true,
			Is64Bit:   true,
			ForceX86:  c.Bool("x86"),
		},
		Features: types.Features{
			Force:                          c.Bool("force"),
			PrereleaseAllowed:              c.Bool("pre"),
			AllowDowngrade:                 c.Bool("allow-downgrade"),
			AllowMultipleVersions:          c.Bool("allow-multiple-versions"),
			StopOnFirstPackageFailure:      c.Bool("stop-on-first-failure"),
			ExitOnRebootDetected:           c.Bool("exit-on-reboot-detected"),
			UseEnhancedExitCodes:           c.Bool("use-enhanced-exit-codes"),
			SkipScripts:                    c.Bool("skip-scripts"),
			PromptForConfirmation:          !c.Bool("y"),
			ChecksumRequired:               c.Bool("checksum-required"),
			AllowEmptyChecksums:            c.Bool("allow-empty-checksums"),
			AllowEmptyChecksumsSecure:      c.Bool("allow-empty-checksums-secure"),
			AcceptLicense:                  c.Bool("accept-license"),
			LogEnvironmentValues:           c.Bool("log-environment-values"),
			UseSystemPowershell:            c.Bool("use-system-powershell"),
			IgnoreDetectedReboot:           c.Bool("ignore-detected-reboot"),
			DisableRepositoryOptimizations: c.Bool("disable-repository-optimizations"),
			LockTransactionalInstallFiles:  c.Bool("lock-transactional-install-files"),
			RemovePackageInformationOnUninstall: c.Bool("remove-package-information-on-uninstall"),
			RegularOutput:                  true,
		},
	}

	var fileCfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		fileCfg = loaded
		fileCfg.ApplyDefaults(cfg)
	}

	return cfg, fileCfg, nil
}

// buildRuntime is buildConfiguration's companion: it also wires the
// Runtime's collaborators via chocoflowcli.BuildRuntime.
func buildRuntime(c *cli.Context, cfg *types.Configuration, fileCfg *config.Config) (*chocoflowcli.Runtime, error) {
	installRoot := c.String("install-root")
	if installRoot == "" {
		installRoot = defaultInstallRoot
	}
	cacheLocation := cfg.CacheLocation
	if cacheLocation == "" {
		cacheLocation = installRoot + `\cache`
	}
	return chocoflowcli.BuildRuntime(c.Context, cfg.CommandName, cfg, fileCfg, installRoot, cacheLocation)
}

// exitCodeForSummary maps a report.Summary's failure count to the
// reserved process exit codes spec.md §4.5's "Published CLI contract"
// names, when the command's own pipeline error (if any) didn't already
// dictate one.
func exitCodeForSummary(failures int) int {
	if failures > 0 {
		return types.ExitCodeGenericFailure
	}
	return types.ExitCodeSuccess
}
