// Package files implements the FilesService (spec.md §6): attribute
// normalization of a freshly materialized package directory and a content
// snapshot used for the durable PackageInformation record and later
// uninstall diffing.
package files

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/justapithecus/chocoflow/types"
)

// Service normalizes file attributes and captures a package's file
// contents.
type Service struct{}

// New returns the default FilesService.
func New() *Service { return &Service{} }

// NormalizeAttributes clears read-only/hidden/system attributes under
// r.InstallLocation so later chocoflow operations (and the user) can freely
// modify the package's files (spec.md §4.5 step 6). A per-file failure is
// logged onto r as a warning and does not abort the walk.
func (s *Service) NormalizeAttributes(r *types.PackageResult, cfg *types.Configuration) error {
	if r.InstallLocation == "" {
		return nil
	}
	return filepath.WalkDir(r.InstallLocation, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if normErr := normalizeAttributes(path); normErr != nil {
			r.AddMessage(types.MessageWarning, "could not normalize attributes for "+path+": "+normErr.Error())
		}
		return nil
	})
}

// Capture builds a FilesSnapshot of every regular file under
// r.InstallLocation, keyed by path relative to it and valued by a sha256
// content hash.
func (s *Service) Capture(r *types.PackageResult, cfg *types.Configuration) (types.FilesSnapshot, error) {
	snapshot := types.FilesSnapshot{Files: map[string]string{}}
	if r.InstallLocation == "" {
		return snapshot, nil
	}

	err := filepath.WalkDir(r.InstallLocation, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(r.InstallLocation, path)
		if relErr != nil {
			return nil
		}

		sum, hashErr := hashFile(path)
		if hashErr != nil {
			r.AddMessage(types.MessageWarning, "could not capture "+path+": "+hashErr.Error())
			return nil
		}
		snapshot.Files[rel] = sum
		return nil
	})

	return snapshot, err
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
