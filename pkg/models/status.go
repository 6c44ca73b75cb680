package models

// BuildStatus represents the outcome of a dataset build
type BuildStatus string

const (
	BuildStatusUnset   BuildStatus = ""        // Zero value = never built
	BuildStatusSuccess BuildStatus = "success" // Build wrote the full dataset
	BuildStatusFailure BuildStatus = "failure" // Build aborted on an error
)

// String implements fmt.Stringer for logging
func (s BuildStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known outcome
func (s BuildStatus) IsValid() bool {
	switch s {
	case BuildStatusSuccess, BuildStatusFailure:
		return true
	}
	return false
}
