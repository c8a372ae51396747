package streamgen

import "time"

// StreamStats tracks the progress of one in-flight generation call: how
// many chunks arrived, how many carried text, an approximate token count,
// elapsed wall-clock time, and the current StreamStatus.
//
// A StreamStats instance is owned exclusively by the call that created it
// and performs no internal locking. Concurrent generation calls must each
// use their own instance.
type StreamStats struct {
	counter TokenCounter
	now     func() time.Time

	start time.Time
	// end is zero until a terminal status is marked, after which Elapsed
	// stops advancing.
	end time.Time

	totalChunks    int
	nonEmptyChunks int
	tokens         int
	status         StreamStatus
}

// StatsSnapshot is a point-in-time copy of a StreamStats, safe to retain
// after the originating call has finished.
type StatsSnapshot struct {
	// TotalChunks counts every chunk received, empty ones included.
	TotalChunks int

	// NonEmptyChunks counts only chunks that carried text. Always at most
	// TotalChunks.
	NonEmptyChunks int

	// Tokens is the approximate token count accumulated from non-empty
	// chunks.
	Tokens int

	// Elapsed is the wall-clock time since the call started, frozen once
	// the stream reaches a terminal status.
	Elapsed time.Duration

	Status StreamStatus
}

// NewStreamStats creates a StreamStats with the clock started. A nil
// counter defaults to WordCounter.
func NewStreamStats(counter TokenCounter) *StreamStats {
	return newStreamStats(counter, time.Now)
}

// newStreamStats injects the clock, so a caller with a fake clock sets
// it exactly once and the start time is stamped from it.
func newStreamStats(counter TokenCounter, now func() time.Time) *StreamStats {
	if counter == nil {
		counter = WordCounter{}
	}
	return &StreamStats{counter: counter, now: now, start: now()}
}

// RecordChunk accounts for one received chunk. TotalChunks always
// increments; NonEmptyChunks and Tokens increment only when text is
// non-empty, so empty keep-alive chunks never inflate the token count.
func (s *StreamStats) RecordChunk(text string) {
	s.totalChunks++
	if text == "" {
		return
	}
	s.nonEmptyChunks++
	s.tokens += s.counter.CountTokens(text)
}

// MarkStatus transitions the stream to the given status. The first
// terminal status stops the elapsed-time clock.
func (s *StreamStats) MarkStatus(status StreamStatus) {
	s.status = status
	if status.Terminal() && s.end.IsZero() {
		s.end = s.now()
	}
}

// Status returns the current lifecycle state.
func (s *StreamStats) Status() StreamStatus {
	return s.status
}

// Elapsed returns the wall-clock time since the call started. It may be
// queried mid-stream for progress display; after a terminal status it
// returns the frozen duration.
func (s *StreamStats) Elapsed() time.Duration {
	if !s.end.IsZero() {
		return s.end.Sub(s.start)
	}
	return s.now().Sub(s.start)
}

// Snapshot returns a copy of the current counters and status.
func (s *StreamStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TotalChunks:    s.totalChunks,
		NonEmptyChunks: s.nonEmptyChunks,
		Tokens:         s.tokens,
		Elapsed:        s.Elapsed(),
		Status:         s.status,
	}
}

// resetCounters clears the per-attempt counters before a retry restarts
// the stream from scratch. The start time is deliberately kept, so Elapsed
// spans all attempts of the call.
func (s *StreamStats) resetCounters() {
	s.totalChunks = 0
	s.nonEmptyChunks = 0
	s.tokens = 0
}
