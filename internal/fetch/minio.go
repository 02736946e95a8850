package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

// Config holds object-store settings for archive downloads.
type Config struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	UseSSL      bool
	Region      string
	Bucket      string
	DownloadDir string
}

// Fetcher downloads help archives from an object store so ingestion can run
// against a local file. The bucket is a source of archives, never created
// here.
type Fetcher struct {
	client *minio.Client
	cfg    Config
	log    logger.Logger
}

// New connects a fetcher to the configured bucket.
func New(log logger.Logger, cfg Config) (*Fetcher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.Bucket)
	}

	return &Fetcher{client: client, cfg: cfg, log: log}, nil
}

// FetchArchive downloads one object into the download directory and returns
// the local path.
func (f *Fetcher) FetchArchive(ctx context.Context, objectName string) (string, error) {
	if err := os.MkdirAll(f.cfg.DownloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	localPath := filepath.Join(f.cfg.DownloadDir, filepath.Base(objectName))

	err := f.client.FGetObject(ctx, f.cfg.Bucket, objectName, localPath, minio.GetObjectOptions{})
	if err != nil {
		f.log.Error("archive download failed",
			logger.String("bucket", f.cfg.Bucket),
			logger.String("object", objectName),
			logger.Error(err),
		)
		return "", fmt.Errorf("download archive %s: %w", objectName, err)
	}

	f.log.Info("archive downloaded",
		logger.String("object", objectName),
		logger.String("path", localPath),
	)
	return localPath, nil
}

// LatestArchive returns the key of the most recently modified .hbk object
// in the bucket, or an error when the bucket holds none.
func (f *Fetcher) LatestArchive(ctx context.Context) (string, error) {
	var latest minio.ObjectInfo
	found := false
	for obj := range f.client.ListObjects(ctx, f.cfg.Bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return "", fmt.Errorf("list bucket %s: %w", f.cfg.Bucket, obj.Err)
		}
		if !strings.HasSuffix(strings.ToLower(obj.Key), ".hbk") {
			continue
		}
		if !found || obj.LastModified.After(latest.LastModified) {
			latest = obj
			found = true
		}
	}
	if !found {
		return "", fmt.Errorf("no help archives in bucket %s", f.cfg.Bucket)
	}
	return latest.Key, nil
}
