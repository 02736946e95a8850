package config

import "time"

// ArchiveConfig holds archive reader settings.
type ArchiveConfig struct {
	MaxFileSize    int64
	ListTimeout    time.Duration
	ExtractTimeout time.Duration
	BatchTimeout   time.Duration
	TempDir        string
}

// LoadArchive reads archive reader settings from the environment.
func LoadArchive() ArchiveConfig {
	loadEnv()
	return ArchiveConfig{
		MaxFileSize:    getInt64("ARCHIVE_MAX_FILE_SIZE", 500*1024*1024),
		ListTimeout:    getDuration("ARCHIVE_LIST_TIMEOUT", 60*time.Second),
		ExtractTimeout: getDuration("ARCHIVE_EXTRACT_TIMEOUT", 30*time.Second),
		BatchTimeout:   getDuration("ARCHIVE_BATCH_TIMEOUT", 120*time.Second),
		TempDir:        getEnv("ARCHIVE_TEMP_DIR", ""),
	}
}
