// Package signals carries typed test outcomes between test bodies and the
// harness. A signal is an error value naming the outcome (pass, failure,
// error) with human-readable details and a free-form extras map that ends
// up in test reports.
package signals

import "fmt"

// Signal is the common shape of all test outcome values.
type Signal interface {
	error
	SignalDetails() string
	SignalExtras() map[string]any
	SetExtra(key string, value any)
}

type base struct {
	Details string
	Extras  map[string]any
}

func (b *base) SignalDetails() string { return b.Details }

func (b *base) SignalExtras() map[string]any { return b.Extras }

func (b *base) SetExtra(key string, value any) {
	if b.Extras == nil {
		b.Extras = make(map[string]any)
	}
	b.Extras[key] = value
}

// TestPass marks an explicitly passing test.
type TestPass struct {
	base
}

// NewTestPass creates a passing signal with the given details.
func NewTestPass(details string) *TestPass {
	return &TestPass{base{Details: details}}
}

func (s *TestPass) Error() string {
	return fmt.Sprintf("test passed: %s", s.Details)
}

// TestFailure marks a failed assertion.
type TestFailure struct {
	base
}

// NewTestFailure creates a failure signal with the given details.
func NewTestFailure(details string) *TestFailure {
	return &TestFailure{base{Details: details}}
}

func (s *TestFailure) Error() string {
	return fmt.Sprintf("test failed: %s", s.Details)
}

// TestError marks an environment or harness problem rather than an
// assertion failure. A non-signal error escaping a test body is converted
// to a TestError with the original error as its cause.
type TestError struct {
	base
	Cause error
}

// NewTestError creates an error signal with the given details.
func NewTestError(details string) *TestError {
	return &TestError{base: base{Details: details}}
}

func (s *TestError) Error() string {
	return fmt.Sprintf("test error: %s", s.Details)
}

func (s *TestError) Unwrap() error {
	return s.Cause
}
