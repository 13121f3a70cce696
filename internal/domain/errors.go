package domain

import "fmt"

// ExitCode represents the exit status of the reviewer.
type ExitCode int

const (
	// ExitNoFindings indicates a completed review with no issues found.
	ExitNoFindings ExitCode = 0
	// ExitFindings indicates a completed review with issues found.
	ExitFindings ExitCode = 1
	// ExitError indicates the run aborted before any unit was processed.
	ExitError ExitCode = 2
	// ExitInterrupted indicates the run was interrupted by a signal.
	ExitInterrupted ExitCode = 130
)

// Int returns the exit code as an int for use with os.Exit.
func (e ExitCode) Int() int {
	return int(e)
}

// ConfigError is the only error class that aborts a run. It is raised for
// invalid setup (missing root path, unknown language or format) before any
// unit is processed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ToolingError marks an external static tool that is missing, crashed, or
// timed out. It is captured as a synthetic finding, never propagated.
type ToolingError struct {
	Tool   string
	Reason string
}

func (e *ToolingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Tool, e.Reason)
}

// ServiceError marks a remote AI call that failed after all retries.
// It is captured as a synthetic finding, never propagated.
type ServiceError struct {
	Attempts int
	Last     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("ai service unavailable after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ServiceError) Unwrap() error {
	return e.Last
}

// ParseError marks unparsable tool or AI output. It is captured as a
// synthetic finding or a dropped-line count, never propagated.
type ParseError struct {
	Source string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable %s output", e.Source)
}
