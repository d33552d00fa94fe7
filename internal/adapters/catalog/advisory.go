package catalog

import (
	"errors"
	"io/fs"
	"os"

	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

type advisoryFile struct {
	Vulnerabilities []vulnerabilityDTO `yaml:"vulnerabilities"`
	Licenses        []licenseDTO       `yaml:"licenses"`
}

type vulnerabilityDTO struct {
	ID       string `yaml:"id"`
	Package  string `yaml:"package"`
	Affected string `yaml:"affected"`
	Summary  string `yaml:"summary"`
}

type licenseDTO struct {
	Package              string `yaml:"package"`
	License              string `yaml:"license"`
	Versions             string `yaml:"versions"`
	CopyleftIncompatible bool   `yaml:"copyleft_incompatible"`
}

// AdvisoryLoader implements ports.AdvisoryLoader.
type AdvisoryLoader struct{}

// NewAdvisoryLoader creates a new AdvisoryLoader.
func NewAdvisoryLoader() *AdvisoryLoader {
	return &AdvisoryLoader{}
}

// Load reads the advisory table at path. A missing file yields an empty table.
func (l *AdvisoryLoader) Load(path string) (*domain.Advisories, error) {
	//nolint:gosec // Path comes from the workspace configuration
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewAdvisories(nil, nil), nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrAdvisoryReadFailed.Error()), "path", path)
	}

	var file advisoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrAdvisoryReadFailed.Error()), "path", path)
	}

	vulns := make([]domain.Vulnerability, 0, len(file.Vulnerabilities))
	for _, v := range file.Vulnerabilities {
		affected, err := domain.ParseConstraint(v.Affected)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "advisory", v.ID), "path", path)
		}
		vulns = append(vulns, domain.Vulnerability{
			ID:       v.ID,
			Package:  v.Package,
			Affected: affected,
			Summary:  v.Summary,
		})
	}

	licenses := make([]domain.LicenseNotice, 0, len(file.Licenses))
	for _, dto := range file.Licenses {
		notice := domain.LicenseNotice{
			Package:              dto.Package,
			License:              dto.License,
			CopyleftIncompatible: dto.CopyleftIncompatible,
		}
		if dto.Versions != "" {
			versions, err := domain.ParseConstraint(dto.Versions)
			if err != nil {
				return nil, zerr.With(zerr.With(err, "license", dto.Package), "path", path)
			}
			notice.Versions = versions
		}
		licenses = append(licenses, notice)
	}

	return domain.NewAdvisories(vulns, licenses), nil
}
