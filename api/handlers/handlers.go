package handlers

import (
	"github.com/feichai0017/onec-docsearch/internal/ingest"
	"github.com/feichai0017/onec-docsearch/internal/store"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

type Handlers struct {
	Health  *HealthHandler
	Index   *IndexHandler
	Archive *ArchiveHandler
}

func NewHandlers(
	manager *ingest.Manager,
	orch *ingest.Orchestrator,
	st store.Store,
	defaultArchivePath string,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(st, log),
		Index:   NewIndexHandler(manager, st, defaultArchivePath, log),
		Archive: NewArchiveHandler(orch, defaultArchivePath, log),
	}
}
