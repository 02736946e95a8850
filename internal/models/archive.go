package models

import "time"

// ArchiveEntry is one logical member of the help archive. Content stays nil
// until it is loaded on demand or by a batch extraction; it is dropped again
// once the owning extraction pass completes.
type ArchiveEntry struct {
	Path    string
	Size    int64
	IsDir   bool
	Content []byte
}

// ArchiveInfo describes the source archive file itself.
type ArchiveInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Modified     time.Time `json:"modified"`
	EntriesCount int       `json:"entries_count"`
}

// CategoryInfo carries section metadata parsed from a __categories__
// side-file.
type CategoryInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	VersionFrom string `json:"version_from,omitempty"`
	Section     string `json:"section"`
}

// IngestionResult aggregates everything one ingestion run produced. The
// orchestrator is its sole writer; once the run completes the value is
// treated as immutable.
type IngestionResult struct {
	FileInfo   ArchiveInfo
	Categories map[string]CategoryInfo
	Documents  []ReferenceDocument
	Errors     []string
	Stats      map[string]int
}

// NewIngestionResult returns a result with initialized maps.
func NewIngestionResult(info ArchiveInfo) *IngestionResult {
	return &IngestionResult{
		FileInfo:   info,
		Categories: make(map[string]CategoryInfo),
		Stats:      make(map[string]int),
	}
}
