package events

import (
	"context"
	"sync"
	"time"
)

// Stats is a point-in-time copy of the recorder counters.
type Stats struct {
	Started       int64            `json:"started"`
	Completed     int64            `json:"completed"`
	Failed        int64            `json:"failed"`
	Partial       int64            `json:"partial"`
	Quick         int64            `json:"quick"`
	ByFileType    map[string]int64 `json:"byFileType"`
	AvgDurationMs int64            `json:"avgDurationMs"`
}

// StatsRecorder counts analysis outcomes. It implements EventHandler.
type StatsRecorder struct {
	mu            sync.Mutex
	stats         Stats
	totalDuration time.Duration
	finished      int64
}

// NewStatsRecorder creates an empty recorder.
func NewStatsRecorder() *StatsRecorder {
	return &StatsRecorder{
		stats: Stats{ByFileType: make(map[string]int64)},
	}
}

// HandleEvent updates the counters for event.
func (s *StatsRecorder) HandleEvent(_ context.Context, event *AnalysisEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Type {
	case TypeAnalysisStarted:
		s.stats.Started++
		s.stats.ByFileType[fileTypeKey(event.FileType)]++
		return nil
	case TypeAnalysisCompleted:
		s.stats.Completed++
	case TypeAnalysisFailed:
		s.stats.Failed++
	case TypeQuickSummary:
		s.stats.Quick++
		s.stats.ByFileType[fileTypeKey(event.FileType)]++
	default:
		return nil
	}

	if event.IsPartial {
		s.stats.Partial++
	}
	s.finished++
	s.totalDuration += event.Duration
	return nil
}

// Snapshot returns a copy of the current counters.
func (s *StatsRecorder) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.stats
	out.ByFileType = make(map[string]int64, len(s.stats.ByFileType))
	for k, v := range s.stats.ByFileType {
		out.ByFileType[k] = v
	}
	if s.finished > 0 {
		out.AvgDurationMs = (s.totalDuration / time.Duration(s.finished)).Milliseconds()
	}
	return out
}

func fileTypeKey(fileType string) string {
	if fileType == "" {
		return "unknown"
	}
	return fileType
}
