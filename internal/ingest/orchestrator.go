package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/onec-docsearch/internal/archive"
	"github.com/feichai0017/onec-docsearch/internal/extract"
	"github.com/feichai0017/onec-docsearch/internal/models"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

// Config tunes a run.
type Config struct {
	BatchSize         int // members per tool invocation
	ParseWorkers      int // concurrent parses within one batch
	MaxDocuments      int // 0 = unlimited
	PreviewMinPerKind int // preview target per document kind
	PreviewMaxFiles   int // preview hard ceiling on extracted files
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:         50,
		ParseWorkers:      4,
		PreviewMinPerKind: 3,
		PreviewMaxFiles:   100,
	}
}

// ProgressFunc reports parse progress as processed-of-total source files.
type ProgressFunc func(processed, total int)

// bucket groups archive members by the section of the archive they sit in.
// The preview sampler draws from buckets round-robin so every document kind
// shows up early; the full run only uses buckets for stats.
type bucket int

const (
	bucketGlobalMethods bucket = iota
	bucketGlobalEvents
	bucketGlobalOther
	bucketCtors
	bucketObjectEvents
	bucketOtherObjects
	bucketCount
)

func bucketFor(memberPath string) (bucket, bool) {
	norm := strings.ToLower(strings.ReplaceAll(memberPath, `\`, "/"))
	switch {
	case strings.Contains(norm, "objects/global context/methods"):
		return bucketGlobalMethods, true
	case strings.Contains(norm, "objects/global context/events"):
		return bucketGlobalEvents, true
	case strings.Contains(norm, "objects/global context"):
		return bucketGlobalOther, true
	case strings.Contains(norm, "/ctors/") || strings.Contains(norm, "/ctor/"):
		return bucketCtors, true
	case strings.Contains(norm, "/events/"):
		return bucketObjectEvents, true
	case strings.Contains(norm, "objects/"):
		return bucketOtherObjects, true
	}
	return 0, false
}

var bucketStatKeys = [bucketCount]string{
	"global_methods_files",
	"global_events_files",
	"global_context_files",
	"object_constructors_files",
	"object_events_files",
	"other_object_files",
}

// Orchestrator drives archive ingestion runs. It owns no archive handle
// itself; each run binds a fresh reader to its source file, so runs never
// share extraction state.
type Orchestrator struct {
	log        logger.Logger
	cfg        Config
	archiveCfg archive.Config
	extractor  *extract.Extractor
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(log logger.Logger, cfg Config, archiveCfg archive.Config) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.ParseWorkers <= 0 {
		cfg.ParseWorkers = DefaultConfig().ParseWorkers
	}
	if cfg.PreviewMinPerKind <= 0 {
		cfg.PreviewMinPerKind = DefaultConfig().PreviewMinPerKind
	}
	if cfg.PreviewMaxFiles <= 0 {
		cfg.PreviewMaxFiles = DefaultConfig().PreviewMaxFiles
	}
	return &Orchestrator{
		log:        log,
		cfg:        cfg,
		archiveCfg: archiveCfg,
		extractor:  extract.NewExtractor(log),
	}
}

// Validate checks the source file contract without opening the archive.
func (o *Orchestrator) Validate(filePath string) error {
	_, err := archive.NewReader(o.log, o.archiveCfg).ValidateSource(filePath)
	return err
}

// Run ingests the whole archive: every reference page is extracted in
// batches and parsed; category side-files become section metadata. A failed
// batch or page is recorded and skipped, never fatal; only validation,
// listing and cancellation abort the run.
func (o *Orchestrator) Run(ctx context.Context, filePath string, onProgress ProgressFunc) (*models.IngestionResult, error) {
	reader := archive.NewReader(o.log, o.archiveCfg)

	info, err := reader.ValidateSource(filePath)
	if err != nil {
		return nil, err
	}
	entries, err := reader.Open(ctx, filePath)
	if err != nil {
		return nil, err
	}

	result := models.NewIngestionResult(info)
	result.FileInfo.EntriesCount = len(entries)

	htmlPaths, categoryPaths := o.classify(entries, result)
	o.ingestCategories(ctx, reader, categoryPaths, result)

	total := len(htmlPaths)
	processed := 0
	for start := 0; start < total; start += o.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if o.cfg.MaxDocuments > 0 && len(result.Documents) >= o.cfg.MaxDocuments {
			o.log.Info("document ceiling reached, stopping early",
				logger.Int("documents", len(result.Documents)),
			)
			break
		}

		end := min(start+o.cfg.BatchSize, total)
		chunk := htmlPaths[start:end]
		contents, err := reader.ExtractBatch(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			msg := fmt.Sprintf("batch %d-%d failed: %v", start, end, err)
			result.Errors = append(result.Errors, msg)
			o.log.Warn("extraction batch failed, skipping", logger.String("error", msg))
			processed += len(chunk)
			continue
		}

		o.parseBatch(ctx, chunk, contents, result)
		processed += len(chunk)
		if onProgress != nil {
			onProgress(processed, total)
		}
	}

	result.Stats["processed_html"] = processed
	result.Stats["parsed_documents"] = len(result.Documents)

	// Parallel parsing appends in completion order; sort for stable output.
	sort.Slice(result.Documents, func(i, j int) bool {
		return result.Documents[i].ID < result.Documents[j].ID
	})

	o.log.Info("ingestion run finished",
		logger.String("path", filePath),
		logger.Int("documents", len(result.Documents)),
		logger.Int("categories", len(result.Categories)),
		logger.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// classify splits the listing into reference pages and category side-files
// and fills the structural stats.
func (o *Orchestrator) classify(entries []models.ArchiveEntry, result *models.IngestionResult) (htmlPaths, categoryPaths []string) {
	var bucketCounts [bucketCount]int
	stFiles := 0
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		switch {
		case isCategoryFile(entry.Path):
			categoryPaths = append(categoryPaths, entry.Path)
		case strings.HasSuffix(strings.ToLower(entry.Path), ".html"):
			htmlPaths = append(htmlPaths, entry.Path)
			if b, ok := bucketFor(entry.Path); ok {
				bucketCounts[b]++
			}
		case strings.HasSuffix(strings.ToLower(entry.Path), ".st"):
			stFiles++
		}
	}

	result.Stats["total_entries"] = len(entries)
	result.Stats["html_files"] = len(htmlPaths)
	result.Stats["st_files"] = stFiles
	result.Stats["category_files"] = len(categoryPaths)
	for b, key := range bucketStatKeys {
		result.Stats[key] = bucketCounts[b]
	}

	o.log.Info("archive structure analyzed",
		logger.Int("html", len(htmlPaths)),
		logger.Int("st", stFiles),
		logger.Int("categories", len(categoryPaths)),
	)
	return htmlPaths, categoryPaths
}

// ingestCategories extracts all side-files in one batch and parses each.
func (o *Orchestrator) ingestCategories(ctx context.Context, reader *archive.Reader, categoryPaths []string, result *models.IngestionResult) {
	if len(categoryPaths) == 0 {
		return
	}
	contents, err := reader.ExtractBatch(ctx, categoryPaths)
	if err != nil {
		msg := fmt.Sprintf("category extraction failed: %v", err)
		result.Errors = append(result.Errors, msg)
		o.log.Warn("category extraction failed, skipping", logger.String("error", msg))
		return
	}
	for memberPath, content := range contents {
		info, ok := parseCategory(content, memberPath)
		if !ok {
			o.log.Warn("could not decode category side-file", logger.String("path", memberPath))
			continue
		}
		result.Categories[info.Section] = info
	}
}

// parseBatch parses one extracted batch with a bounded worker group. The
// result is the only shared state; a mutex serializes appends.
func (o *Orchestrator) parseBatch(ctx context.Context, chunk []string, contents map[string][]byte, result *models.IngestionResult) {
	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.ParseWorkers)
	for _, memberPath := range chunk {
		memberPath := memberPath
		content, ok := contents[memberPath]
		if !ok {
			mu.Lock()
			result.Errors = append(result.Errors, fmt.Sprintf("member not extracted: %s", memberPath))
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			doc := o.extractor.Extract(content, memberPath)
			if doc == nil {
				mu.Lock()
				result.Errors = append(result.Errors, fmt.Sprintf("member not parsed: %s", memberPath))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			result.Documents = append(result.Documents, *doc)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
}

// Preview samples the archive until every document kind has a few
// representatives, instead of extracting everything. Members are drawn
// round-robin from the section buckets in fixed rounds, and each unmet
// bucket contributes a handful of files per round, so the sample stays small
// and cheap: single-member extractions, bounded by PreviewMaxFiles.
func (o *Orchestrator) Preview(ctx context.Context, filePath string) (*models.IngestionResult, error) {
	reader := archive.NewReader(o.log, o.archiveCfg)

	info, err := reader.ValidateSource(filePath)
	if err != nil {
		return nil, err
	}
	entries, err := reader.Open(ctx, filePath)
	if err != nil {
		return nil, err
	}

	result := models.NewIngestionResult(info)
	result.FileInfo.EntriesCount = len(entries)

	htmlPaths, categoryPaths := o.classify(entries, result)
	o.ingestCategories(ctx, reader, categoryPaths, result)

	var buckets [bucketCount][]string
	for _, memberPath := range htmlPaths {
		if b, ok := bucketFor(memberPath); ok {
			buckets[b] = append(buckets[b], memberPath)
		}
	}

	const perRound = 5
	var offsets [bucketCount]int
	processed := 0

	for processed < o.cfg.PreviewMaxFiles && !o.previewQuotaMet(result) {
		advanced := false
		for b := bucket(0); b < bucketCount; b++ {
			if !o.bucketUnmet(b, result) {
				continue
			}
			for i := 0; i < perRound && offsets[b] < len(buckets[b]) && processed < o.cfg.PreviewMaxFiles; i++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				memberPath := buckets[b][offsets[b]]
				offsets[b]++
				advanced = true

				content, err := reader.ExtractFile(ctx, memberPath)
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("preview extract %s: %v", memberPath, err))
					continue
				}
				processed++
				if doc := o.extractor.Extract(content, memberPath); doc != nil {
					result.Documents = append(result.Documents, *doc)
				}
			}
		}
		if !advanced {
			break
		}
	}

	result.Stats["processed_html"] = processed
	result.Stats["parsed_documents"] = len(result.Documents)
	o.log.Info("preview sample collected",
		logger.String("path", filePath),
		logger.Int("documents", len(result.Documents)),
		logger.Int("processed", processed),
	)
	return result, nil
}

func kindCounts(result *models.IngestionResult) map[models.DocKind]int {
	counts := make(map[models.DocKind]int)
	for _, doc := range result.Documents {
		counts[doc.Kind]++
	}
	return counts
}

// previewQuotaMet reports whether every kind reached the per-kind minimum.
func (o *Orchestrator) previewQuotaMet(result *models.IngestionResult) bool {
	counts := kindCounts(result)
	for _, kind := range []models.DocKind{
		models.KindGlobalFunction,
		models.KindGlobalProcedure,
		models.KindGlobalEvent,
		models.KindObjectFunction,
		models.KindObjectProcedure,
		models.KindObjectProperty,
		models.KindObjectEvent,
		models.KindObjectConstructor,
		models.KindObjectContainer,
	} {
		if counts[kind] < o.cfg.PreviewMinPerKind {
			return false
		}
	}
	return true
}

// bucketUnmet reports whether the kinds a bucket can produce still need
// representatives.
func (o *Orchestrator) bucketUnmet(b bucket, result *models.IngestionResult) bool {
	counts := kindCounts(result)
	below := func(kinds ...models.DocKind) bool {
		for _, k := range kinds {
			if counts[k] < o.cfg.PreviewMinPerKind {
				return true
			}
		}
		return false
	}
	switch b {
	case bucketGlobalMethods:
		return below(models.KindGlobalFunction, models.KindGlobalProcedure)
	case bucketGlobalEvents:
		return below(models.KindGlobalEvent)
	case bucketGlobalOther:
		return below(models.KindObjectProperty)
	case bucketCtors:
		return below(models.KindObjectConstructor)
	case bucketObjectEvents:
		return below(models.KindObjectEvent)
	case bucketOtherObjects:
		return below(models.KindObjectFunction, models.KindObjectProcedure, models.KindObjectContainer)
	}
	return false
}
