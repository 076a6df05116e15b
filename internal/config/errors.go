package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoKeywords is returned when no search keyword is configured.
	ErrNoKeywords = errors.New("no keywords specified: use --keyword or --input")

	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidFormat is returned for an output format other than json or csv.
	ErrInvalidFormat = errors.New("invalid format: must be json or csv")

	ErrInvalidSummary = errors.New("invalid summary: must be text or html")

	ErrInvalidRPS = errors.New("invalid rps: must be non-negative")

	// ErrInvalidJitter is returned when jitter falls outside [0, 1].
	ErrInvalidJitter = errors.New("invalid jitter: must be between 0 and 1")

	ErrInvalidMaxRedirects = errors.New("invalid max redirects: must be non-negative")

	ErrInvalidMetricsPort = errors.New("invalid metrics port: must be between 0 and 65535")

	ErrInvalidFingerprint = errors.New("invalid fingerprint profile")
)
