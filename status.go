package streamgen

// StreamStatus is the lifecycle state of a single generation call.
//
// The allowed transitions are:
//
//	StatusIdle -> StatusStreaming            the stream opened
//	StatusStreaming -> StatusStreaming       a chunk arrived
//	StatusStreaming -> StatusCompleted       the stream ended normally
//	StatusStreaming -> StatusRetrying        a retryable failure occurred
//	StatusRetrying -> StatusStreaming        the backoff wait elapsed and a
//	                                         fresh attempt started (counters reset)
//	StatusStreaming/StatusRetrying -> StatusFailed
//	                                         a non-retryable failure occurred
//	                                         or retries were exhausted
//
// StatusCompleted and StatusFailed are terminal.
type StreamStatus int

const (
	// StatusIdle is the initial state before the stream opens.
	StatusIdle StreamStatus = iota

	// StatusStreaming indicates chunks are arriving.
	StatusStreaming

	// StatusRetrying indicates a transient failure triggered a
	// backoff-and-retry cycle. The next attempt restarts the stream from
	// scratch.
	StatusRetrying

	// StatusCompleted indicates the stream ended normally. Terminal.
	StatusCompleted

	// StatusFailed indicates a non-retryable failure, exhausted retries,
	// or a timeout. Terminal.
	StatusFailed
)

// Terminal reports whether the status is an end state of the stream
// lifecycle.
func (s StreamStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s StreamStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStreaming:
		return "streaming"
	case StatusRetrying:
		return "retrying"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
