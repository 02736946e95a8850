package config

// MinioConfig holds object-store settings for archive downloads. The
// fetcher is optional; Enabled gates its construction entirely.
type MinioConfig struct {
	Enabled     bool
	Endpoint    string
	AccessKey   string
	SecretKey   string
	UseSSL      bool
	Region      string
	Bucket      string
	DownloadDir string
}

// LoadMinio reads object-store settings from the environment.
func LoadMinio() MinioConfig {
	loadEnv()
	return MinioConfig{
		Enabled:     getBool("MINIO_ENABLED", false),
		Endpoint:    getEnv("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		SecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		UseSSL:      getBool("MINIO_USE_SSL", false),
		Region:      getEnv("MINIO_REGION", ""),
		Bucket:      getEnv("MINIO_BUCKET_NAME", ""),
		DownloadDir: getEnv("MINIO_DOWNLOAD_DIR", "downloads"),
	}
}
