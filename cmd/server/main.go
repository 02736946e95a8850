package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/onec-docsearch/api/handlers"
	"github.com/feichai0017/onec-docsearch/api/routes"
	"github.com/feichai0017/onec-docsearch/config"
	"github.com/feichai0017/onec-docsearch/internal/archive"
	"github.com/feichai0017/onec-docsearch/internal/fetch"
	"github.com/feichai0017/onec-docsearch/internal/ingest"
	"github.com/feichai0017/onec-docsearch/internal/store"
	"github.com/feichai0017/onec-docsearch/internal/store/elastic"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

func main() {
	logCfg := config.LoadLog()
	log, err := logger.NewLogger(
		logger.WithLevel(logCfg.Level),
		logger.WithEncoding(logCfg.Encoding),
		logger.WithOutputPaths(logCfg.OutputPaths),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	serverCfg := config.LoadServer()
	esCfg := config.LoadElasticsearch()
	archiveCfg := config.LoadArchive()
	ingestCfg := config.LoadIngest()
	minioCfg := config.LoadMinio()

	st, err := elastic.New(log, elastic.Config{
		Addresses: esCfg.Addresses,
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Index:     esCfg.Index,
	})
	if err != nil {
		log.Fatal("failed to create search store", logger.Error(err))
	}

	orch := ingest.NewOrchestrator(log,
		ingest.Config{
			BatchSize:         ingestCfg.BatchSize,
			ParseWorkers:      ingestCfg.ParseWorkers,
			MaxDocuments:      ingestCfg.MaxDocuments,
			PreviewMinPerKind: ingestCfg.PreviewMinPerKind,
			PreviewMaxFiles:   ingestCfg.PreviewMaxFiles,
		},
		archive.Config{
			MaxFileSize:    archiveCfg.MaxFileSize,
			ListTimeout:    archiveCfg.ListTimeout,
			ExtractTimeout: archiveCfg.ExtractTimeout,
			BatchTimeout:   archiveCfg.BatchTimeout,
			TempDir:        archiveCfg.TempDir,
		},
	)
	manager := ingest.NewManager(log, orch, ingestCfg.StoreBatchSize, ingestCfg.ProgressLogEvery)

	archivePath := resolveArchivePath(log, ingestCfg, minioCfg)
	if ingestCfg.AutoIndex && archivePath != "" {
		autoIndex(log, manager, st, archivePath)
	}

	h := handlers.NewHandlers(manager, orch, st, archivePath, log)

	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, serverCfg.RateLimitRPS, serverCfg.RateLimitBurst)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", serverCfg.Host, serverCfg.Port),
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", logger.Error(err))
		}
	}()
	log.Info("server started",
		logger.String("addr", srv.Addr),
		logger.String("index", esCfg.Index),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if !manager.GracefulShutdown(serverCfg.ShutdownTimeout) {
		log.Warn("indexing run still winding down at exit")
	}

	ctx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", logger.Error(err))
	}
	log.Info("server stopped")
}

// resolveArchivePath returns the archive to serve as the default source: the
// configured local path, or the freshest archive pulled from the object
// store when one is enabled and no local path is set. A missing archive is
// not fatal; rebuilds can still name a path explicitly.
func resolveArchivePath(log logger.Logger, ingestCfg config.IngestConfig, minioCfg config.MinioConfig) string {
	if ingestCfg.ArchivePath != "" || !minioCfg.Enabled {
		return ingestCfg.ArchivePath
	}

	fetcher, err := fetch.New(log, fetch.Config{
		Endpoint:    minioCfg.Endpoint,
		AccessKey:   minioCfg.AccessKey,
		SecretKey:   minioCfg.SecretKey,
		UseSSL:      minioCfg.UseSSL,
		Region:      minioCfg.Region,
		Bucket:      minioCfg.Bucket,
		DownloadDir: minioCfg.DownloadDir,
	})
	if err != nil {
		log.Error("object store unavailable", logger.Error(err))
		return ""
	}

	ctx := context.Background()
	key, err := fetcher.LatestArchive(ctx)
	if err != nil {
		log.Error("no archive found in object store", logger.Error(err))
		return ""
	}
	localPath, err := fetcher.FetchArchive(ctx, key)
	if err != nil {
		log.Error("archive download failed", logger.Error(err))
		return ""
	}
	return localPath
}

// autoIndex kicks off a background run at startup when the index is absent
// or empty. Failures only log; the server still comes up.
func autoIndex(log logger.Logger, manager *ingest.Manager, st store.Store, archivePath string) {
	ctx := context.Background()
	exists, err := st.IndexExists(ctx)
	if err != nil {
		log.Warn("cannot check index state, skipping auto-index", logger.Error(err))
		return
	}
	if exists {
		count, err := st.Count(ctx)
		if err != nil {
			log.Warn("cannot count index documents, skipping auto-index", logger.Error(err))
			return
		}
		if count > 0 {
			log.Info("index already populated, skipping auto-index", logger.Int64("documents", count))
			return
		}
	}
	log.Info("index empty, starting initial indexing", logger.String("path", archivePath))
	manager.Start(archivePath, st)
}
