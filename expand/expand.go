// Package expand implements the Package Config Expander (spec.md §4.3): it
// turns a command-level Configuration into a lazily-produced sequence of
// per-package Configurations, resolving packages.config list-document
// references along the way.
//
// Expand returns a Go 1.23 range-over-func iterator so the coordinator can
// stop early — spec.md §4.3 step 5 says "the caller stops early on
// stopOnFirstPackageFailure" — by simply breaking out of the range loop;
// no buffering of the full sequence is required.
package expand

import (
	"iter"
	"strings"

	"github.com/justapithecus/chocoflow/listdoc"
	"github.com/justapithecus/chocoflow/types"
)

const listDocumentSuffix = ".config"

// Item is one element of the expansion sequence: either a ready-to-dispatch
// per-package Configuration, or an error result recorded for a list
// document that could not be located.
type Item struct {
	Config       *types.Configuration
	MissingDoc   *types.PackageResult
}

// SourceTypeResolver reports whether a source string names a known
// source-kind, and if so its canonical sourceType tag.
type SourceTypeResolver func(source string) (sourceType string, ok bool)

// Expand splits cmd.PackageNames on ";", treats entries ending in ".config"
// as list-document references (loaded and overlaid via svc), and yields one
// Configuration per non-disabled PackageSpec followed finally by the
// (possibly package-name-reduced) command-level Configuration itself.
func Expand(cmd *types.Configuration, svc listdoc.Service, resolve SourceTypeResolver) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		tokens := splitNonEmpty(cmd.PackageNames)

		var remaining []string
		for _, token := range tokens {
			if !isListDocument(token) {
				remaining = append(remaining, token)
				continue
			}

			specs, err := svc.Load(token)
			if err != nil {
				missing := &types.PackageResult{Name: token}
				missing.AddMessage(types.MessageError, "could not locate list document: "+token)
				if !yield(Item{MissingDoc: missing}) {
					return
				}
				continue
			}

			for _, spec := range specs {
				if spec.Disabled {
					continue
				}
				perPackage := overlay(cmd.Clone(), spec, resolve)
				if !yield(Item{Config: perPackage}) {
					return
				}
			}
		}

		final := cmd.Clone()
		final.PackageNames = strings.Join(remaining, ";")
		yield(Item{Config: final})
	}
}

func splitNonEmpty(raw string) []string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func isListDocument(token string) bool {
	return strings.HasSuffix(strings.ToLower(token), listDocumentSuffix)
}

// overlay applies every non-empty PackageSpec field onto c per spec.md
// §4.3 step 3, returning c for convenience.
func overlay(c *types.Configuration, spec types.PackageSpec, resolve SourceTypeResolver) *types.Configuration {
	if spec.ID != "" {
		c.PackageNames = spec.ID
	}
	if spec.Source != "" {
		c.SourceLocator = spec.Source
		if resolve != nil {
			if sourceType, ok := resolve(spec.Source); ok {
				c.SourceType = sourceType
			}
		}
	}
	if spec.Version != "" {
		c.Version = spec.Version
	}
	if spec.InstallArguments != "" {
		c.InstallArguments = spec.InstallArguments
	}
	if spec.PackageParameters != "" {
		c.PackageParameters = spec.PackageParameters
	}
	if spec.User != "" {
		c.Credentials.User = spec.User
	}
	if spec.Password != "" {
		c.Credentials.Password = spec.Password
	}
	if spec.Cert != "" {
		c.Credentials.Cert = spec.Cert
	}
	if spec.CertPassword != "" {
		c.Credentials.CertPassword = spec.CertPassword
	}
	if spec.CacheLocation != "" {
		c.CacheLocation = spec.CacheLocation
	}
	if spec.DownloadChecksum != "" {
		c.DownloadChecksum = spec.DownloadChecksum
	}
	if spec.DownloadChecksumType != "" {
		c.DownloadChecksumType = spec.DownloadChecksumType
	}
	if spec.DownloadChecksum64 != "" {
		c.DownloadChecksum64 = spec.DownloadChecksum64
	}
	if spec.ExecutionTimeoutSeconds != -1 {
		c.ExecutionTimeoutSeconds = spec.ExecutionTimeoutSeconds
	}

	// Boolean overlays set true only — never clear — with the documented
	// exceptions below.
	if spec.RequireChecksums {
		c.Features.ChecksumRequired = true
		c.Features.AllowEmptyChecksums = false
		c.Features.AllowEmptyChecksumsSecure = false
	}
	if spec.Confirm {
		c.Features.PromptForConfirmation = false
		c.Features.AcceptLicense = true
	}

	// These three clear their respective features instead of setting them.
	if spec.UseSystemPowershell {
		c.Features.UseSystemPowershell = false
	}
	if spec.IgnoreDetectedReboot {
		c.Features.IgnoreDetectedReboot = false
	}
	if spec.DisableRepositoryOptimizations {
		c.Features.DisableRepositoryOptimizations = false
	}

	return c
}
