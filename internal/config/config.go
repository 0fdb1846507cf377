// Package config reads the environment variables that configure a
// ghrebase run: which forge to talk to, how long to wait on it, and how
// loudly to log. Everything here has a sane zero-config default; the
// variables exist for deployments that need to point at a GitHub
// Enterprise instance or tune timeouts, not for routine use.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	envTmpRefPrefix = "GHREBASE_TMP_REF_PREFIX"
	envBaseURL      = "GHREBASE_GITHUB_BASE_URL"
	envTimeout      = "GHREBASE_REQUEST_TIMEOUT"
	envLogLevel     = "GHREBASE_LOG_LEVEL"

	// defaultTmpRefPrefix namespaces scratch branches (relative to
	// refs/heads/) so they're trivially distinguishable from real
	// branches in forge UIs and webhooks, and collectible by a cleanup
	// job if a process dies mid-replay.
	defaultTmpRefPrefix = "ghrebase/"

	defaultTimeout = 30 * time.Second
)

// Config holds the environment-derived settings for a run.
type Config struct {
	// TmpRefPrefix namespaces the scratch branches the replay engine
	// creates, relative to refs/heads/.
	TmpRefPrefix string

	// GitHubBaseURL is the API base URL. Empty means github.com; set it
	// to a GitHub Enterprise Server instance's API root otherwise.
	GitHubBaseURL string

	// RequestTimeout bounds every individual forge API call.
	RequestTimeout time.Duration

	// LogLevel is the parsed zerolog level to log at.
	LogLevel zerolog.Level
}

// FromEnv reads Config from the process environment, applying defaults
// for anything unset.
func FromEnv() (Config, error) {
	cfg := Config{
		TmpRefPrefix:   defaultTmpRefPrefix,
		RequestTimeout: defaultTimeout,
		LogLevel:       zerolog.InfoLevel,
	}

	if v := os.Getenv(envTmpRefPrefix); v != "" {
		cfg.TmpRefPrefix = v
	}

	cfg.GitHubBaseURL = os.Getenv(envBaseURL)

	if v := os.Getenv(envTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", envTimeout)
		}

		cfg.RequestTimeout = d
	}

	if v := os.Getenv(envLogLevel); v != "" {
		level, err := zerolog.ParseLevel(v)
		if err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", envLogLevel)
		}

		cfg.LogLevel = level
	}

	return cfg, nil
}
