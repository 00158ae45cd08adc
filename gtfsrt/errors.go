package gtfsrt

import "fmt"

// UnknownLineError reports a line code with no feed mapping at all,
// distinct from a feed that is mapped but failing.
type UnknownLineError struct {
	Line string
}

func (e *UnknownLineError) Error() string {
	return fmt.Sprintf("no feed mapping for line %q", e.Line)
}

// NoDataError reports that a line is mapped and its feed was read, but
// zero vehicles survived filtering. Callers use this to tell "nothing
// running right now" apart from "line code invalid".
type NoDataError struct {
	Line string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no vehicles currently reported for line %q", e.Line)
}

// FeedUnavailableError reports an upstream fetch or decode failure.
// StatusCode is zero when the failure happened before an HTTP response.
type FeedUnavailableError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FeedUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed unavailable: HTTP %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("feed unavailable: %s: %v", e.URL, e.Err)
}

func (e *FeedUnavailableError) Unwrap() error { return e.Err }

// FeedTimeoutError reports that an upstream fetch exceeded its deadline.
type FeedTimeoutError struct {
	URL string
	Err error
}

func (e *FeedTimeoutError) Error() string {
	return fmt.Sprintf("feed request timed out: %s", e.URL)
}

func (e *FeedTimeoutError) Unwrap() error { return e.Err }
