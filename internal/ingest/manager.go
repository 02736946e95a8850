package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/onec-docsearch/internal/models"
	"github.com/feichai0017/onec-docsearch/internal/store"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

// runner is the slice of the orchestrator the manager drives.
type runner interface {
	Validate(filePath string) error
	Run(ctx context.Context, filePath string, onProgress ProgressFunc) (*models.IngestionResult, error)
}

// Manager owns the background indexing lifecycle: at most one run at a
// time, a shared progress snapshot and cancellation on shutdown. All state
// transitions happen under one mutex; the run itself executes in its own
// goroutine.
type Manager struct {
	log            logger.Logger
	runner         runner
	storeBatchSize int
	logEvery       int

	mu       sync.Mutex
	progress models.IndexingProgress
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewManager creates a manager around the orchestrator. progressLogEvery
// bounds progress-log volume on large archives; zero keeps the default.
func NewManager(log logger.Logger, orch *Orchestrator, storeBatchSize, progressLogEvery int) *Manager {
	m := newManager(log, orch, storeBatchSize)
	if progressLogEvery > 0 {
		m.logEvery = progressLogEvery
	}
	return m
}

func newManager(log logger.Logger, r runner, storeBatchSize int) *Manager {
	if storeBatchSize <= 0 {
		storeBatchSize = 500
	}
	return &Manager{
		log:            log,
		runner:         r,
		storeBatchSize: storeBatchSize,
		logEvery:       1000,
		progress:       models.IndexingProgress{Status: models.StatusIdle},
	}
}

// Start launches a background run for the given archive and returns whether
// a run was actually started. A run already in progress makes Start a
// logged no-op; a source file failing validation moves the state straight
// to failed without ever entering in_progress.
func (m *Manager) Start(filePath string, st store.Store) bool {
	m.mu.Lock()
	if m.progress.Status == models.StatusInProgress {
		m.mu.Unlock()
		m.log.Warn("indexing already in progress, start ignored",
			logger.String("path", filePath),
		)
		return false
	}

	if err := m.runner.Validate(filePath); err != nil {
		now := time.Now()
		m.progress = models.IndexingProgress{
			Status:       models.StatusFailed,
			StartTime:    now,
			EndTime:      now,
			ErrorMessage: err.Error(),
			FilePath:     filePath,
		}
		m.mu.Unlock()
		m.log.Error("indexing source rejected",
			logger.String("path", filePath),
			logger.Error(err),
		)
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.progress = models.IndexingProgress{
		RunID:     uuid.NewString(),
		Status:    models.StatusInProgress,
		StartTime: time.Now(),
		FilePath:  filePath,
	}
	m.cancel = cancel
	m.done = done
	runID := m.progress.RunID
	m.mu.Unlock()

	m.log.Info("indexing run started",
		logger.String("runId", runID),
		logger.String("path", filePath),
	)
	go m.run(ctx, filePath, st, done)
	return true
}

func (m *Manager) run(ctx context.Context, filePath string, st store.Store, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			m.fail(fmt.Sprintf("indexing run panicked: %v", r))
		}
	}()

	lastLogged := 0
	result, err := m.runner.Run(ctx, filePath, func(processed, total int) {
		m.mu.Lock()
		m.progress.TotalDocuments = total
		m.progress.IndexedDocuments = processed
		m.mu.Unlock()
		if processed-lastLogged >= m.logEvery {
			lastLogged = processed
			m.log.Info("parsing archive",
				logger.Int("processed", processed),
				logger.Int("total", total),
			)
		}
	})
	if err != nil {
		m.fail(err.Error())
		return
	}

	docs := result.Documents
	m.mu.Lock()
	m.progress.TotalDocuments = len(docs)
	m.progress.IndexedDocuments = 0
	m.mu.Unlock()

	if err := st.Recreate(ctx); err != nil {
		m.fail(err.Error())
		return
	}
	for start := 0; start < len(docs); start += m.storeBatchSize {
		if err := ctx.Err(); err != nil {
			m.fail("indexing cancelled")
			return
		}
		end := min(start+m.storeBatchSize, len(docs))
		if err := st.BulkUpsert(ctx, docs[start:end]); err != nil {
			m.fail(err.Error())
			return
		}
		m.mu.Lock()
		m.progress.IndexedDocuments = end
		m.mu.Unlock()
		m.log.Info("documents loaded",
			logger.Int("indexed", end),
			logger.Int("total", len(docs)),
		)
	}
	if err := st.Refresh(ctx); err != nil {
		m.fail(err.Error())
		return
	}
	if count, err := st.Count(ctx); err != nil {
		m.log.Warn("could not confirm index count", logger.Error(err))
	} else {
		m.log.Info("index count confirmed", logger.Int64("count", count))
	}

	m.mu.Lock()
	m.progress.Status = models.StatusCompleted
	m.progress.EndTime = time.Now()
	snapshot := m.progress
	m.mu.Unlock()

	m.log.Info("indexing run completed",
		logger.String("runId", snapshot.RunID),
		logger.Int("documents", len(docs)),
		logger.Int("ingestErrors", len(result.Errors)),
		logger.Duration("duration", snapshot.Duration()),
	)
}

func (m *Manager) fail(msg string) {
	m.mu.Lock()
	m.progress.Status = models.StatusFailed
	m.progress.ErrorMessage = msg
	m.progress.EndTime = time.Now()
	runID := m.progress.RunID
	m.mu.Unlock()
	m.log.Error("indexing run failed",
		logger.String("runId", runID),
		logger.String("error", msg),
	)
}

// Status returns a point-in-time copy of the run state.
func (m *Manager) Status() models.IndexingProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}

// IsRunning reports whether a run is in progress.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress.Status == models.StatusInProgress
}

// GracefulShutdown cancels any in-flight run and waits for it to wind down.
// It returns true when no run was active or the run stopped within the
// timeout.
func (m *Manager) GracefulShutdown(timeout time.Duration) bool {
	m.mu.Lock()
	if m.progress.Status != models.StatusInProgress || m.done == nil {
		m.mu.Unlock()
		return true
	}
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	cancel()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		m.log.Warn("indexing run did not stop before shutdown timeout")
		return false
	}
}
