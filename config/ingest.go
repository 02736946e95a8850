package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// IngestConfig holds ingestion pipeline tuning. Environment values can be
// overridden by an optional YAML file named in INGEST_CONFIG_FILE, which is
// handy for per-deployment tuning without touching the environment.
type IngestConfig struct {
	BatchSize         int    `yaml:"batchSize"`
	ParseWorkers      int    `yaml:"parseWorkers"`
	MaxDocuments      int    `yaml:"maxDocuments"`
	PreviewMinPerKind int    `yaml:"previewMinPerKind"`
	PreviewMaxFiles   int    `yaml:"previewMaxFiles"`
	StoreBatchSize    int    `yaml:"storeBatchSize"`
	ProgressLogEvery  int    `yaml:"progressLogEvery"`
	ArchivePath       string `yaml:"archivePath"`
	AutoIndex         bool   `yaml:"autoIndex"`
}

// LoadIngest reads ingestion settings from the environment and the optional
// YAML overlay.
func LoadIngest() IngestConfig {
	loadEnv()
	cfg := IngestConfig{
		BatchSize:         getInt("INGEST_BATCH_SIZE", 50),
		ParseWorkers:      getInt("INGEST_PARSE_WORKERS", 4),
		MaxDocuments:      getInt("INGEST_MAX_DOCUMENTS", 0),
		PreviewMinPerKind: getInt("INGEST_PREVIEW_MIN_PER_KIND", 3),
		PreviewMaxFiles:   getInt("INGEST_PREVIEW_MAX_FILES", 100),
		StoreBatchSize:    getInt("INGEST_STORE_BATCH_SIZE", 500),
		ProgressLogEvery:  getInt("INGEST_PROGRESS_LOG_EVERY", 1000),
		ArchivePath:       getEnv("HBK_ARCHIVE_PATH", ""),
		AutoIndex:         getBool("INGEST_AUTO_INDEX", false),
	}

	if path := os.Getenv("INGEST_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("cannot read ingest config file %s: %v", path, err)
			return cfg
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Printf("cannot parse ingest config file %s: %v", path, err)
		}
	}
	return cfg
}
