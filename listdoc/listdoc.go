// Package listdoc is the default XmlService collaborator (spec.md §6): it
// deserializes a packages.config list-document into an ordered list of
// PackageSpec records. No library in the example corpus parses XML, so
// this uses the standard library's encoding/xml — the schema itself is
// explicitly named an external collaborator's concern in spec.md §1, and
// nothing in the pack carries an XML dependency to reuse instead.
package listdoc

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/justapithecus/chocoflow/types"
)

// Service deserializes list documents into PackageSpec records.
type Service interface {
	Load(path string) ([]types.PackageSpec, error)
}

// document and packageElement mirror the packages.config schema: a flat
// <packages><package id="..." .../></packages> document.
type document struct {
	XMLName  xml.Name          `xml:"packages"`
	Packages []packageElement `xml:"package"`
}

type packageElement struct {
	ID                              string `xml:"id,attr"`
	Version                         string `xml:"version,attr"`
	Source                          string `xml:"source,attr"`
	Disabled                        bool   `xml:"disabled,attr"`
	InstallArguments                string `xml:"installArguments,attr"`
	PackageParameters                string `xml:"packageParameters,attr"`
	User                            string `xml:"user,attr"`
	Password                        string `xml:"password,attr"`
	Cert                            string `xml:"cert,attr"`
	CertPassword                    string `xml:"certPassword,attr"`
	CacheLocation                   string `xml:"cacheLocation,attr"`
	DownloadChecksum                string `xml:"downloadChecksum,attr"`
	DownloadChecksumType            string `xml:"downloadChecksumType,attr"`
	DownloadChecksum64              string `xml:"downloadChecksum64,attr"`
	ExecutionTimeoutSeconds         *int   `xml:"executionTimeoutSeconds,attr"`
	RequireChecksums                bool   `xml:"requireChecksums,attr"`
	Confirm                         bool   `xml:"confirm,attr"`
	UseSystemPowershell             bool   `xml:"useSystemPowershell,attr"`
	IgnoreDetectedReboot            bool   `xml:"ignoreDetectedReboot,attr"`
	DisableRepositoryOptimizations  bool   `xml:"disableRepositoryOptimizations,attr"`
}

// XMLService is the default Service implementation, backed by the local
// filesystem and encoding/xml.
type XMLService struct{}

// New returns the default XmlService.
func New() *XMLService { return &XMLService{} }

// Load reads and parses the list document at path.
func (XMLService) Load(path string) ([]types.PackageSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrListDocumentMissing, path)
	}
	defer f.Close()

	return parse(f)
}

func parse(r io.Reader) ([]types.PackageSpec, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("listdoc: decode: %w", err)
	}

	specs := make([]types.PackageSpec, 0, len(doc.Packages))
	for _, p := range doc.Packages {
		timeout := -1
		if p.ExecutionTimeoutSeconds != nil {
			timeout = *p.ExecutionTimeoutSeconds
		}
		specs = append(specs, types.PackageSpec{
			ID:                              p.ID,
			Version:                         p.Version,
			Source:                          p.Source,
			Disabled:                        p.Disabled,
			InstallArguments:                p.InstallArguments,
			PackageParameters:               p.PackageParameters,
			User:                            p.User,
			Password:                        p.Password,
			Cert:                            p.Cert,
			CertPassword:                    p.CertPassword,
			CacheLocation:                   p.CacheLocation,
			DownloadChecksum:                p.DownloadChecksum,
			DownloadChecksumType:            p.DownloadChecksumType,
			DownloadChecksum64:              p.DownloadChecksum64,
			ExecutionTimeoutSeconds:         timeout,
			RequireChecksums:                p.RequireChecksums,
			Confirm:                         p.Confirm,
			UseSystemPowershell:             p.UseSystemPowershell,
			IgnoreDetectedReboot:            p.IgnoreDetectedReboot,
			DisableRepositoryOptimizations:  p.DisableRepositoryOptimizations,
		})
	}
	return specs, nil
}
