package streamgen

import (
	"testing"
	"time"
)

func TestStreamStatsRecordChunk(t *testing.T) {
	testCases := []struct {
		name         string
		chunks       []string
		wantTotal    int
		wantNonEmpty int
		wantTokens   int
	}{
		{
			name:         "no chunks",
			chunks:       nil,
			wantTotal:    0,
			wantNonEmpty: 0,
			wantTokens:   0,
		},
		{
			name:         "mixed empty and non-empty",
			chunks:       []string{"def add(a", "", ", b):\n    return a + b"},
			wantTotal:    3,
			wantNonEmpty: 2,
			wantTokens:   8,
		},
		{
			name:         "only empty chunks yield zero tokens",
			chunks:       []string{"", "", "", ""},
			wantTotal:    4,
			wantNonEmpty: 0,
			wantTokens:   0,
		},
		{
			name:         "single word per chunk",
			chunks:       []string{"hello ", "world "},
			wantTotal:    2,
			wantNonEmpty: 2,
			wantTokens:   2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStreamStats(nil)
			for _, c := range tc.chunks {
				s.RecordChunk(c)
			}
			snap := s.Snapshot()
			if snap.TotalChunks != tc.wantTotal {
				t.Errorf("TotalChunks = %d, want %d", snap.TotalChunks, tc.wantTotal)
			}
			if snap.NonEmptyChunks != tc.wantNonEmpty {
				t.Errorf("NonEmptyChunks = %d, want %d", snap.NonEmptyChunks, tc.wantNonEmpty)
			}
			if snap.Tokens != tc.wantTokens {
				t.Errorf("Tokens = %d, want %d", snap.Tokens, tc.wantTokens)
			}
			if snap.NonEmptyChunks > snap.TotalChunks {
				t.Errorf("NonEmptyChunks %d exceeds TotalChunks %d", snap.NonEmptyChunks, snap.TotalChunks)
			}
		})
	}
}

func TestStreamStatsElapsed(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	s := newStreamStats(nil, func() time.Time { return current })

	current = base.Add(3 * time.Second)
	if got := s.Elapsed(); got != 3*time.Second {
		t.Errorf("Elapsed() mid-stream = %s, want 3s", got)
	}

	// terminal status freezes the clock
	s.MarkStatus(StatusCompleted)
	current = base.Add(10 * time.Second)
	if got := s.Elapsed(); got != 3*time.Second {
		t.Errorf("Elapsed() after terminal status = %s, want frozen 3s", got)
	}
	if got := s.Snapshot().Elapsed; got != 3*time.Second {
		t.Errorf("Snapshot().Elapsed = %s, want frozen 3s", got)
	}
}

func TestStreamStatsStatusTransitions(t *testing.T) {
	s := NewStreamStats(nil)
	if got := s.Status(); got != StatusIdle {
		t.Fatalf("initial status = %v, want %v", got, StatusIdle)
	}
	s.MarkStatus(StatusStreaming)
	s.MarkStatus(StatusRetrying)
	if got := s.Status(); got != StatusRetrying {
		t.Errorf("status = %v, want %v", got, StatusRetrying)
	}
	s.MarkStatus(StatusStreaming)
	s.MarkStatus(StatusFailed)
	if got := s.Snapshot().Status; got != StatusFailed {
		t.Errorf("Snapshot().Status = %v, want %v", got, StatusFailed)
	}
}

func TestStreamStatsResetCounters(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	s := newStreamStats(nil, func() time.Time { return current })

	s.RecordChunk("one two three")
	current = base.Add(2 * time.Second)
	s.resetCounters()

	snap := s.Snapshot()
	if snap.TotalChunks != 0 || snap.NonEmptyChunks != 0 || snap.Tokens != 0 {
		t.Errorf("counters after reset = %+v, want all zero", snap)
	}
	// the clock keeps running across resets
	if snap.Elapsed != 2*time.Second {
		t.Errorf("Elapsed after reset = %s, want 2s", snap.Elapsed)
	}
}

func TestStreamStatusString(t *testing.T) {
	testCases := []struct {
		status StreamStatus
		want   string
	}{
		{StatusIdle, "idle"},
		{StatusStreaming, "streaming"},
		{StatusRetrying, "retrying"},
		{StatusCompleted, "completed"},
		{StatusFailed, "failed"},
		{StreamStatus(99), "unknown"},
	}
	for _, tc := range testCases {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("%d.String() = %q, want %q", int(tc.status), got, tc.want)
		}
	}
}

func TestStreamStatusTerminal(t *testing.T) {
	for _, s := range []StreamStatus{StatusIdle, StatusStreaming, StatusRetrying} {
		if s.Terminal() {
			t.Errorf("%v.Terminal() = true, want false", s)
		}
	}
	for _, s := range []StreamStatus{StatusCompleted, StatusFailed} {
		if !s.Terminal() {
			t.Errorf("%v.Terminal() = false, want true", s)
		}
	}
}
