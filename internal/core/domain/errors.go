package domain

import "go.trai.ch/zerr"

var (
	// ErrMalformedConstraint is returned when a version constraint expression cannot be parsed.
	ErrMalformedConstraint = zerr.New("malformed version constraint")

	// ErrMalformedVersion is returned when a candidate version cannot be parsed.
	ErrMalformedVersion = zerr.New("malformed version")

	// ErrEmptyPackageName is returned when a requirement does not name a package.
	ErrEmptyPackageName = zerr.New("requirement has no package name")

	// ErrUnknownStrategy is returned when a strategy name is not recognised.
	ErrUnknownStrategy = zerr.New("unknown resolution strategy")

	// ErrInvalidHybrid is returned when a hybrid strategy has no members or is malformed.
	ErrInvalidHybrid = zerr.New("hybrid strategy must list at least one member, e.g. hybrid(pinned-version|latest-compatible)")

	// ErrInvalidThreshold is returned when the compatibility threshold lies outside [0,1].
	ErrInvalidThreshold = zerr.New("compatibility threshold must be within [0,1]")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = zerr.New("max workers must be positive")

	// ErrInvalidTimeout is returned when the timeout is negative.
	ErrInvalidTimeout = zerr.New("timeout must not be negative")

	// ErrInvalidWeights is returned when the smart selection weights are negative or sum to zero.
	ErrInvalidWeights = zerr.New("smart selection weights must be non-negative and not all zero")

	// ErrStrategyExhausted is recorded when every strategy in a chain failed for a conflict.
	ErrStrategyExhausted = zerr.New("strategy chain exhausted")

	// ErrResolutionTimeout is recorded when a component did not finish before the run timeout.
	ErrResolutionTimeout = zerr.New("resolution timed out")

	// ErrLockCorruption is returned when a lock artifact fails structural or constraint validation.
	ErrLockCorruption = zerr.New("lock artifact is corrupt")

	// ErrLockStale is returned when a checked-in lock artifact no longer matches a fresh resolution.
	ErrLockStale = zerr.New("lock artifact is out of date")

	// ErrLockReadFailed is returned when the lock artifact cannot be read.
	ErrLockReadFailed = zerr.New("failed to read lock artifact")

	// ErrLockWriteFailed is returned when the lock artifact cannot be written.
	ErrLockWriteFailed = zerr.New("failed to write lock artifact")

	// ErrLockEncodeFailed is returned when the lock artifact cannot be serialized.
	ErrLockEncodeFailed = zerr.New("failed to encode lock artifact")

	// ErrHistoryReadFailed is returned when the history log cannot be read.
	ErrHistoryReadFailed = zerr.New("failed to read resolution history")

	// ErrHistoryWriteFailed is returned when the history log cannot be appended to.
	ErrHistoryWriteFailed = zerr.New("failed to append resolution history")

	// ErrConfigReadFailed is returned when a configuration file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when a configuration file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when no workspace or scope file can be found.
	ErrConfigNotFound = zerr.New("could not find accord.yaml or accord.work.yaml")

	// ErrDuplicateScope is returned when two scopes in a workspace share a name.
	ErrDuplicateScope = zerr.New("duplicate scope name")

	// ErrMissingScopeName is returned when a scope file in a workspace does not name its scope.
	ErrMissingScopeName = zerr.New("missing scope name")

	// ErrInvalidScopeName is returned when a scope name contains invalid characters.
	ErrInvalidScopeName = zerr.New("scope name can only contain alphanumeric characters, hyphens, dots and underscores")

	// ErrCatalogReadFailed is returned when the package catalog cannot be loaded.
	ErrCatalogReadFailed = zerr.New("failed to read package catalog")

	// ErrAdvisoryReadFailed is returned when the advisory table cannot be loaded.
	ErrAdvisoryReadFailed = zerr.New("failed to read advisory table")

	// ErrUnknownReportFormat is returned when the requested report format is not supported.
	ErrUnknownReportFormat = zerr.New("unknown report format, expected text or json")

	// ErrResolutionFailed is returned when the resolve command hit a fatal error.
	ErrResolutionFailed = zerr.New("resolution failed")

	// ErrUnresolvedConflicts is returned when unresolved conflicts remain and the caller asked to fail on them.
	ErrUnresolvedConflicts = zerr.New("unresolved conflicts remain")

	// ErrWatchUnavailable is returned when watch mode is requested without a file watcher.
	ErrWatchUnavailable = zerr.New("watch mode is not available")
)
