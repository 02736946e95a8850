package config

import "strings"

// ElasticsearchConfig holds search cluster settings.
type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// LoadElasticsearch reads cluster settings from the environment.
func LoadElasticsearch() ElasticsearchConfig {
	loadEnv()
	return ElasticsearchConfig{
		Addresses: strings.Split(getEnv("ELASTICSEARCH_ADDRESSES", "http://localhost:9200"), ","),
		Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
		Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
		Index:     getEnv("ELASTICSEARCH_INDEX", "onec-docs"),
	}
}
