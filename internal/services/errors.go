package services

import "fmt"

// RelayErrorKind classifies why a webhook relay call failed.
type RelayErrorKind int

const (
	RelayTimeout RelayErrorKind = iota
	RelayUnreachable
	RelayUpstream
	RelayNotConfigured
)

// RelayError is returned when the outbound webhook call fails. Status and
// Body are set only for RelayUpstream.
type RelayError struct {
	Kind   RelayErrorKind
	Status int
	Body   string
	Err    error
}

func (e *RelayError) Error() string {
	switch e.Kind {
	case RelayTimeout:
		return "webhook request timed out"
	case RelayUpstream:
		if e.Body != "" {
			return fmt.Sprintf("webhook returned status %d: %s", e.Status, e.Body)
		}
		return fmt.Sprintf("webhook returned status %d", e.Status)
	case RelayNotConfigured:
		return "webhook URL is not configured"
	default:
		if e.Err != nil {
			return fmt.Sprintf("webhook unreachable: %v", e.Err)
		}
		return "webhook unreachable"
	}
}

func (e *RelayError) Unwrap() error { return e.Err }

// ValidationError reports malformed caller input.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// StoreError reports a failed persistence or read operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }
