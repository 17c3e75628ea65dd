package salesforce

import "fmt"

// UpstreamError is a failure reported by the upstream service. It carries
// the raw error payload so callers can pass it through to the client
// unmodified.
type UpstreamError struct {
	Op          string
	StatusCode  int
	Body        []byte
	ContentType string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}
