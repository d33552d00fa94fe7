// Package config provides the workspace loader for accord.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/accord/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using YAML files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Mode represents the configuration mode of accord.
type Mode string

const (
	// ModeWorkspace indicates that accord has a workfile.
	ModeWorkspace Mode = "workspace"
	// ModeStandalone indicates that accord has only one scope file.
	ModeStandalone Mode = "standalone"
)

var validScopeNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Load reads the workspace configuration found from cwd.
func (l *Loader) Load(cwd string) (*domain.Workspace, error) {
	configPath, mode, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeStandalone:
		return l.loadScopefile(configPath)
	case ModeWorkspace:
		return l.loadWorkfile(configPath)
	default:
		return nil, zerr.With(domain.ErrConfigNotFound, "mode", mode)
	}
}

// DiscoverRoot returns the directory holding the workfile or scope file found from cwd.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	configPath, _, err := l.findConfiguration(cwd)
	if err != nil {
		return "", err
	}
	return filepath.Dir(configPath), nil
}

func (l *Loader) findConfiguration(cwd string) (string, Mode, error) {
	currentDir := cwd
	var standaloneCandidate string

	for {
		workfilePath := filepath.Join(currentDir, domain.WorkFileName)
		if _, err := os.Stat(workfilePath); err == nil {
			return workfilePath, ModeWorkspace, nil
		}

		if standaloneCandidate == "" {
			scopePath := filepath.Join(currentDir, domain.ScopeFileName)
			if _, err := os.Stat(scopePath); err == nil {
				standaloneCandidate = scopePath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	if standaloneCandidate != "" {
		return standaloneCandidate, ModeStandalone, nil
	}

	return "", "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) loadScopefile(configPath string) (*domain.Workspace, error) {
	var scopefile Scopefile
	if err := readAndUnmarshalYAML(configPath, &scopefile); err != nil {
		return nil, err
	}

	root := resolveRoot(configPath, scopefile.Root)
	name := scopefile.Scope
	if name == "" {
		name = filepath.Base(root)
	}
	if err := validateScopeName(name, "."); err != nil {
		return nil, err
	}

	scope, err := buildScope(domain.ScopeID(name), ".", &scopefile)
	if err != nil {
		return nil, err
	}

	ws := &domain.Workspace{
		Root:      root,
		Scopes:    []domain.Scope{scope},
		Settings:  settingsFrom(scopefile.Resolution),
		Overrides: scopefile.Overrides,
	}
	applyPaths(ws, "", "", "", "")
	return ws, nil
}

func (l *Loader) loadWorkfile(configPath string) (*domain.Workspace, error) {
	var workfile Workfile
	if err := readAndUnmarshalYAML(configPath, &workfile); err != nil {
		return nil, err
	}

	root := resolveRoot(configPath, workfile.Root)
	scopePaths, err := l.resolveScopePaths(root, workfile.Scopes)
	if err != nil {
		return nil, err
	}

	ws := &domain.Workspace{
		Root:      root,
		Settings:  settingsFrom(workfile.Resolution),
		Overrides: workfile.Overrides,
	}
	applyPaths(ws, workfile.Catalog, workfile.Advisories, workfile.Lock, workfile.History)

	// Track scope names to ensure uniqueness
	scopeNames := make(map[string]string)
	for _, scopePath := range scopePaths {
		scope, ok, err := l.processScope(root, scopePath, scopeNames)
		if err != nil {
			return nil, err
		}
		if ok {
			ws.Scopes = append(ws.Scopes, scope)
		}
	}

	return ws, nil
}

func (l *Loader) resolveScopePaths(root string, patterns []string) ([]string, error) {
	// Deduplicate paths when several globs match the same directory.
	scopePaths := make(map[string]struct{})

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, zerr.Wrap(err, "glob pattern failed: "+pattern)
		}
		for _, match := range matches {
			scopePaths[match] = struct{}{}
		}
	}

	sortedPaths := make([]string, 0, len(scopePaths))
	for p := range scopePaths {
		sortedPaths = append(sortedPaths, p)
	}
	slices.Sort(sortedPaths)

	return sortedPaths, nil
}

func (l *Loader) processScope(root, scopePath string, scopeNames map[string]string) (domain.Scope, bool, error) {
	relPath, _ := filepath.Rel(root, scopePath)

	// Glob returns files too.
	info, err := os.Stat(scopePath)
	if err != nil {
		return domain.Scope{}, false, err
	}
	if !info.IsDir() {
		return domain.Scope{}, false, nil
	}

	scopeFilePath := filepath.Join(scopePath, domain.ScopeFileName)
	if _, statErr := os.Stat(scopeFilePath); os.IsNotExist(statErr) {
		l.Logger.Warn(fmt.Sprintf("%s missing in scope %s, skipping", domain.ScopeFileName, relPath))
		return domain.Scope{}, false, nil
	}

	var scopefile Scopefile
	if err := readAndUnmarshalYAML(scopeFilePath, &scopefile); err != nil {
		return domain.Scope{}, false, zerr.With(err, "directory", relPath)
	}

	if scopefile.Scope == "" {
		return domain.Scope{}, false, zerr.With(domain.ErrMissingScopeName, "directory", relPath)
	}
	if err := validateScopeName(scopefile.Scope, relPath); err != nil {
		return domain.Scope{}, false, err
	}

	if existingPath, exists := scopeNames[scopefile.Scope]; exists {
		err := zerr.With(domain.ErrDuplicateScope, "scope_name", scopefile.Scope)
		err = zerr.With(err, "first_occurrence", existingPath)
		err = zerr.With(err, "duplicate_at", relPath)
		return domain.Scope{}, false, err
	}
	scopeNames[scopefile.Scope] = relPath

	if scopefile.Root != "" {
		l.Logger.Warn(fmt.Sprintf("'root' defined in %s is ignored in workspace mode", relPath))
	}
	if scopefile.Resolution != nil || len(scopefile.Overrides) > 0 {
		l.Logger.Warn(fmt.Sprintf("resolution settings in %s are ignored in workspace mode", relPath))
	}

	scope, err := buildScope(domain.ScopeID(scopefile.Scope), relPath, &scopefile)
	if err != nil {
		return domain.Scope{}, false, err
	}
	return scope, true, nil
}

// buildScope turns a scope file into requirements, sorted by name.
func buildScope(name domain.ScopeID, relPath string, scopefile *Scopefile) (domain.Scope, error) {
	scope := domain.Scope{Name: name, Path: relPath}

	add := func(pkg, constraint, dependent string, optional bool) error {
		req, err := domain.NewRequirement(pkg, constraint, name)
		if err != nil {
			return zerr.With(err, "directory", relPath)
		}
		req.Optional = optional
		req.Dependent = dependent
		scope.Requirements = append(scope.Requirements, req)
		return nil
	}

	for pkg, constraint := range scopefile.Requires {
		if err := add(pkg, constraint, "", false); err != nil {
			return scope, err
		}
	}
	for pkg, constraint := range scopefile.Optional {
		if err := add(pkg, constraint, "", true); err != nil {
			return scope, err
		}
	}
	for dependent, deps := range scopefile.Dependencies {
		for pkg, constraint := range deps {
			if err := add(pkg, constraint, dependent, false); err != nil {
				return scope, err
			}
		}
	}

	scope.Requirements = domain.SortRequirements(scope.Requirements)
	return scope, nil
}

func settingsFrom(dto *ResolutionDTO) domain.Settings {
	if dto == nil {
		return domain.Settings{}
	}
	return domain.Settings{
		Strategy:               dto.Strategy,
		FallbackStrategies:     dto.FallbackStrategies,
		CompatibilityThreshold: dto.CompatibilityThreshold,
		Parallel:               dto.Parallel,
		MaxThreads:             dto.MaxThreads,
		TimeoutSeconds:         dto.Timeout,
		PreferStable:           dto.PreferStable,
		StrictPinning:          dto.StrictPinning,
		AllowPrompts:           dto.AllowPrompts,
		TrackHistory:           dto.TrackHistory,
		Weights:                dto.Weights,
	}
}

// applyPaths fills the file locations, falling back to the defaults under the workspace root.
func applyPaths(ws *domain.Workspace, catalog, advisories, lock, history string) {
	ws.CatalogPath = resolvePath(ws.Root, catalog, domain.DefaultCatalogPath(ws.Root))
	ws.AdvisoryPath = resolvePath(ws.Root, advisories, domain.DefaultAdvisoryPath(ws.Root))
	ws.LockPath = resolvePath(ws.Root, lock, domain.DefaultLockPath(ws.Root))
	ws.HistoryPath = resolvePath(ws.Root, history, domain.DefaultHistoryPath(ws.Root))
}

func resolvePath(root, configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(root, configured))
}

func resolveRoot(configPath, configuredRoot string) string {
	return resolvePath(filepath.Dir(configPath), configuredRoot, filepath.Clean(filepath.Dir(configPath)))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}

func validateScopeName(name, relPath string) error {
	if !validScopeNameRegex.MatchString(name) {
		err := zerr.With(domain.ErrInvalidScopeName, "scope_name", name)
		return zerr.With(err, "directory", relPath)
	}
	return nil
}
