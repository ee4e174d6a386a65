// Package remote provides remote command execution for lab equipment.
// It defines the Runner contract consumed by device controllers and an
// SSH-backed implementation for real hardware.
package remote

import "time"

// Result holds the outcome of a remote command.
type Result struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// RunOption adjusts a single Run call.
type RunOption func(*runConfig)

type runConfig struct {
	timeout       time.Duration
	ignoreFailure bool
}

// WithTimeout bounds the command's execution time. Zero means no bound.
func WithTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		c.timeout = d
	}
}

// IgnoreFailure makes Run return the Result instead of an error when the
// command exits non-zero. Transport-level failures still return an error.
func IgnoreFailure() RunOption {
	return func(c *runConfig) {
		c.ignoreFailure = true
	}
}

// Runner executes shell commands on a remote target. Implementations are
// synchronous: Run blocks until the command completes or times out.
type Runner interface {
	// Run executes cmd and returns its output. A non-zero exit status is an
	// error unless IgnoreFailure is given.
	Run(cmd string, opts ...RunOption) (Result, error)

	// Host returns the target address, for logging and error context.
	Host() string
}

func applyOptions(opts []RunOption) runConfig {
	var c runConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
