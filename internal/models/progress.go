package models

import "time"

// IndexingStatus is the state of the background indexing run.
type IndexingStatus string

const (
	StatusIdle       IndexingStatus = "idle"
	StatusInProgress IndexingStatus = "in_progress"
	StatusCompleted  IndexingStatus = "completed"
	StatusFailed     IndexingStatus = "failed"
)

// IndexingProgress is a point-in-time snapshot of a run. Values are copied
// out of the manager under its lock, so a snapshot is safe to keep and read
// concurrently with the run.
type IndexingProgress struct {
	RunID            string         `json:"run_id,omitempty"`
	Status           IndexingStatus `json:"status"`
	TotalDocuments   int            `json:"total_documents"`
	IndexedDocuments int            `json:"indexed_documents"`
	StartTime        time.Time      `json:"start_time"`
	EndTime          time.Time      `json:"end_time"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	FilePath         string         `json:"file_path,omitempty"`
}

// ProgressPercent is in [0, 100] and 0 while no total is known.
func (p IndexingProgress) ProgressPercent() float64 {
	if p.TotalDocuments == 0 {
		return 0
	}
	pct := float64(p.IndexedDocuments) / float64(p.TotalDocuments) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Duration is the elapsed run time, using now while the run is still open.
func (p IndexingProgress) Duration() time.Duration {
	if p.StartTime.IsZero() {
		return 0
	}
	end := p.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(p.StartTime)
}
