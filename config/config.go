package config

import (
	"fmt"
	"time"

	"github.com/justapithecus/chocoflow/types"
)

// Config represents a chocoflow.yaml configuration file. All values are
// optional and act as defaults for a command's flags. CLI flags always
// override config values.
type Config struct {
	SourceType        string            `yaml:"source_type"`
	SourceLocator     string            `yaml:"source_locator"`
	CacheLocation     string            `yaml:"cache_location"`
	InstallArguments  string            `yaml:"install_arguments"`
	PackageParameters string            `yaml:"package_parameters"`
	Credentials       CredentialsConfig `yaml:"credentials"`
	Features          map[string]bool   `yaml:"features"`
	EventBus          EventBusConfig    `yaml:"event_bus"`
	PackageInfo       PackageInfoConfig `yaml:"package_info"`
}

// CredentialsConfig holds default source credentials from the config file.
type CredentialsConfig struct {
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Cert         string `yaml:"cert"`
	CertPassword string `yaml:"cert_password"`
}

// EventBusConfig selects and configures the default EventBus adapter.
type EventBusConfig struct {
	Type    string            `yaml:"type"` // "redis" or "webhook"
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// PackageInfoConfig selects and configures the PackageInfoService backend.
type PackageInfoConfig struct {
	Backend      string `yaml:"backend"` // "file" or "s3"
	Path         string `yaml:"path"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// ApplyDefaults overlays c's values onto cfg wherever cfg still carries its
// zero value. Call this after cfg has been built from CLI flags: a
// non-empty string from a flag is kept and a feature a flag turned on stays
// on, so flags retain the final word, mirroring the config file's own "CLI
// flags always override" contract.
func (c *Config) ApplyDefaults(cfg *types.Configuration) {
	if c == nil || cfg == nil {
		return
	}

	if cfg.SourceType == "" {
		cfg.SourceType = c.SourceType
	}
	if cfg.SourceLocator == "" {
		cfg.SourceLocator = c.SourceLocator
	}
	if cfg.CacheLocation == "" {
		cfg.CacheLocation = c.CacheLocation
	}
	if cfg.InstallArguments == "" {
		cfg.InstallArguments = c.InstallArguments
	}
	if cfg.PackageParameters == "" {
		cfg.PackageParameters = c.PackageParameters
	}

	if cfg.Credentials.User == "" {
		cfg.Credentials.User = c.Credentials.User
	}
	if cfg.Credentials.Password == "" {
		cfg.Credentials.Password = c.Credentials.Password
	}
	if cfg.Credentials.Cert == "" {
		cfg.Credentials.Cert = c.Credentials.Cert
	}
	if cfg.Credentials.CertPassword == "" {
		cfg.Credentials.CertPassword = c.Credentials.CertPassword
	}

	for name, value := range c.Features {
		if value {
			applyFeature(&cfg.Features, name)
		}
	}
}

// applyFeature sets the named Features field to true. Unknown names are
// ignored; a typo in chocoflow.yaml should not be fatal to the run.
func applyFeature(f *types.Features, name string) {
	switch name {
	case "checksum_required":
		f.ChecksumRequired = true
	case "allow_empty_checksums":
		f.AllowEmptyChecksums = true
	case "allow_empty_checksums_secure":
		f.AllowEmptyChecksumsSecure = true
	case "prerelease_allowed":
		f.PrereleaseAllowed = true
	case "allow_downgrade":
		f.AllowDowngrade = true
	case "allow_multiple_versions":
		f.AllowMultipleVersions = true
	case "stop_on_first_package_failure":
		f.StopOnFirstPackageFailure = true
	case "exit_on_reboot_detected":
		f.ExitOnRebootDetected = true
	case "use_enhanced_exit_codes":
		f.UseEnhancedExitCodes = true
	case "log_environment_values":
		f.LogEnvironmentValues = true
	case "pin_package":
		f.PinPackage = true
	case "prompt_for_confirmation":
		f.PromptForConfirmation = true
	case "accept_license":
		f.AcceptLicense = true
	case "regular_output":
		f.RegularOutput = true
	case "skip_scripts":
		f.SkipScripts = true
	case "skip_package_install_provider":
		f.SkipPackageInstallProvider = true
	case "use_system_powershell":
		f.UseSystemPowershell = true
	case "ignore_detected_reboot":
		f.IgnoreDetectedReboot = true
	case "disable_repository_optimizations":
		f.DisableRepositoryOptimizations = true
	case "lock_transactional_install_files":
		f.LockTransactionalInstallFiles = true
	case "remove_package_information_on_uninstall":
		f.RemovePackageInformationOnUninstall = true
	case "force":
		f.Force = true
	}
}
