package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/onec-docsearch/internal/ingest"
	"github.com/feichai0017/onec-docsearch/internal/models"
	"github.com/feichai0017/onec-docsearch/internal/store"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

type IndexHandler struct {
	manager            *ingest.Manager
	store              store.Store
	defaultArchivePath string
	log                logger.Logger
}

func NewIndexHandler(manager *ingest.Manager, st store.Store, defaultArchivePath string, log logger.Logger) *IndexHandler {
	return &IndexHandler{
		manager:            manager,
		store:              st,
		defaultArchivePath: defaultArchivePath,
		log:                log,
	}
}

// Status returns the current run snapshot plus the live index state.
func (h *IndexHandler) Status(c *gin.Context) {
	progress := h.manager.Status()
	resp := gin.H{
		"status":            progress.Status,
		"total_documents":   progress.TotalDocuments,
		"indexed_documents": progress.IndexedDocuments,
		"progress_percent":  progress.ProgressPercent(),
		"duration_seconds":  progress.Duration().Seconds(),
	}
	if progress.RunID != "" {
		resp["run_id"] = progress.RunID
	}
	if progress.FilePath != "" {
		resp["file_path"] = progress.FilePath
	}
	if progress.ErrorMessage != "" {
		resp["error_message"] = progress.ErrorMessage
	}

	index := gin.H{}
	exists, err := h.store.IndexExists(c.Request.Context())
	if err != nil {
		index["available"] = false
		index["error"] = err.Error()
	} else {
		index["available"] = true
		index["exists"] = exists
		if exists {
			if count, err := h.store.Count(c.Request.Context()); err == nil {
				index["documents"] = count
			}
		}
	}
	resp["index"] = index

	c.JSON(http.StatusOK, resp)
}

type rebuildRequest struct {
	FilePath string `json:"file_path"`
}

// Rebuild launches a background reindexing run. The body may name an
// archive; otherwise the configured default is used. A run already in
// progress yields 409, a rejected source file 422.
func (h *IndexHandler) Rebuild(c *gin.Context) {
	var req rebuildRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	filePath := req.FilePath
	if filePath == "" {
		filePath = h.defaultArchivePath
	}
	if filePath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no archive path given and none configured"})
		return
	}

	if h.manager.Start(filePath, h.store) {
		c.JSON(http.StatusAccepted, gin.H{
			"message":   "indexing started",
			"run_id":    h.manager.Status().RunID,
			"file_path": filePath,
		})
		return
	}

	st := h.manager.Status()
	if st.Status == models.StatusInProgress {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "indexing already in progress",
			"run_id": st.RunID,
		})
		return
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":     st.ErrorMessage,
		"file_path": filePath,
	})
}
