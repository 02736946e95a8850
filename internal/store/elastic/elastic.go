package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"github.com/feichai0017/onec-docsearch/internal/models"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

// referenceMapping is the index definition for reference documents. Text
// fields run through a Russian analyzer; parameters are nested so per-field
// queries stay scoped to one parameter.
const referenceMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "filter": {
        "russian_stop": {"type": "stop", "stopwords": "_russian_"},
        "russian_stemmer": {"type": "stemmer", "language": "russian"}
      },
      "analyzer": {
        "russian_analyzer": {
          "tokenizer": "standard",
          "filter": ["lowercase", "russian_stop", "russian_stemmer"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id": {"type": "keyword"},
      "type": {"type": "keyword"},
      "name": {
        "type": "text",
        "analyzer": "russian_analyzer",
        "fields": {"keyword": {"type": "keyword"}}
      },
      "object": {
        "type": "text",
        "analyzer": "russian_analyzer",
        "fields": {"keyword": {"type": "keyword"}}
      },
      "syntax_ru": {"type": "text"},
      "syntax_en": {"type": "text"},
      "description": {"type": "text", "analyzer": "russian_analyzer"},
      "parameters": {
        "type": "nested",
        "properties": {
          "name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
          "type": {"type": "text"},
          "description": {"type": "text", "analyzer": "russian_analyzer"},
          "required": {"type": "boolean"}
        }
      },
      "return_type": {"type": "text"},
      "usage": {"type": "text", "analyzer": "russian_analyzer"},
      "version_from": {"type": "keyword"},
      "examples": {"type": "text"},
      "source_file": {"type": "keyword"},
      "full_path": {
        "type": "text",
        "fields": {"keyword": {"type": "keyword"}}
      },
      "methods": {
        "properties": {
          "name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
          "name_en": {"type": "keyword"},
          "href": {"type": "keyword"}
        }
      },
      "properties": {
        "properties": {
          "name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
          "name_en": {"type": "keyword"},
          "href": {"type": "keyword"}
        }
      },
      "events": {
        "properties": {
          "name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
          "name_en": {"type": "keyword"},
          "href": {"type": "keyword"}
        }
      }
    }
  }
}`

// Config holds connection settings for the cluster.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// ElasticStore implements store.Store on an Elasticsearch cluster.
type ElasticStore struct {
	log    logger.Logger
	client *elasticsearch.Client
	index  string
}

// New connects a store to the cluster described by cfg.
func New(log logger.Logger, cfg Config) (*ElasticStore, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &ElasticStore{log: log, client: client, index: cfg.Index}, nil
}

// Ping checks that the cluster is reachable.
func (s *ElasticStore) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping cluster: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping cluster: %s", res.Status())
	}
	return nil
}

// IndexExists reports whether the target index is present.
func (s *ElasticStore) IndexExists(ctx context.Context) (bool, error) {
	res, err := s.client.Indices.Exists(
		[]string{s.index},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", s.index, err)
	}
	defer res.Body.Close()
	return res.StatusCode == 200, nil
}

// Count returns the number of documents in the index.
func (s *ElasticStore) Count(ctx context.Context) (int64, error) {
	res, err := s.client.Count(
		s.client.Count.WithContext(ctx),
		s.client.Count.WithIndex(s.index),
	)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("count documents: %s", res.Status())
	}
	var out struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return out.Count, nil
}

// Recreate drops the index when present and creates it fresh with the
// reference-document mapping.
func (s *ElasticStore) Recreate(ctx context.Context) error {
	del, err := s.client.Indices.Delete(
		[]string{s.index},
		s.client.Indices.Delete.WithContext(ctx),
		s.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("delete index %s: %w", s.index, err)
	}
	del.Body.Close()

	create, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(referenceMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer create.Body.Close()
	if create.IsError() {
		return fmt.Errorf("create index %s: %s", s.index, create.String())
	}
	s.log.Info("index recreated", logger.String("index", s.index))
	return nil
}

// BulkUpsert writes the documents in one bulk request, keyed by ID.
func (s *ElasticStore) BulkUpsert(ctx context.Context, docs []models.ReferenceDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		meta := fmt.Sprintf(`{"index":{"_index":%q,"_id":%q}}`, s.index, doc.ID)
		buf.WriteString(meta)
		buf.WriteByte('\n')
		line, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", doc.ID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithIndex(s.index),
	)
	if err != nil {
		return fmt.Errorf("bulk write: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk write: %s", res.Status())
	}

	var out struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if out.Errors {
		for _, item := range out.Items {
			for _, op := range item {
				if op.Status >= 300 {
					return fmt.Errorf("bulk write rejected: %s: %s", op.Error.Type, op.Error.Reason)
				}
			}
		}
		return fmt.Errorf("bulk write reported item errors")
	}
	return nil
}

// Refresh makes written documents searchable.
func (s *ElasticStore) Refresh(ctx context.Context) error {
	res, err := s.client.Indices.Refresh(
		s.client.Indices.Refresh.WithContext(ctx),
		s.client.Indices.Refresh.WithIndex(s.index),
	)
	if err != nil {
		return fmt.Errorf("refresh index %s: %w", s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("refresh index %s: %s", s.index, res.Status())
	}
	return nil
}
