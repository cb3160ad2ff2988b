package tools

import "time"

// Status classifies how an invocation ended.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusTruncated Status = "truncated"
	StatusFailed    Status = "failed"
)

// ErrorKind names the failure class of a failed invocation. Callers branch
// on kinds, never on error strings.
type ErrorKind string

const (
	ErrorKindConfiguration       ErrorKind = "configuration_error"
	ErrorKindUnsupportedProvider ErrorKind = "unsupported_provider"
	ErrorKindConnection          ErrorKind = "connection_error"
	ErrorKindUpstreamTimeout     ErrorKind = "upstream_timeout"
	ErrorKindUpstream            ErrorKind = "upstream_error"
)

// Result is the only thing a tool invocation produces. Failures are carried
// as data; no error value crosses the registry boundary except tool-not-found.
type Result struct {
	ToolName      string
	Status        Status
	Content       string
	Payload       any
	Dropped       int
	ErrorKind     ErrorKind
	Error         string
	ExecutionTime time.Duration
	Metadata      map[string]string
}

// SuccessResult builds a succeeded result.
func SuccessResult(content string, payload any) Result {
	return Result{
		Status:  StatusSucceeded,
		Content: content,
		Payload: payload,
	}
}

// TruncatedResult builds a truncated result; dropped counts the items cut
// off by the effective limit.
func TruncatedResult(content string, payload any, dropped int) Result {
	return Result{
		Status:  StatusTruncated,
		Content: content,
		Payload: payload,
		Dropped: dropped,
	}
}

// ErrorResult builds a failed result of the given kind.
func ErrorResult(kind ErrorKind, err error) Result {
	r := Result{
		Status:    StatusFailed,
		ErrorKind: kind,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Failed reports whether the invocation failed.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}
