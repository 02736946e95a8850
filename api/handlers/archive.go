package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/onec-docsearch/internal/archive"
	"github.com/feichai0017/onec-docsearch/internal/ingest"
	"github.com/feichai0017/onec-docsearch/internal/models"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

type ArchiveHandler struct {
	orch               *ingest.Orchestrator
	defaultArchivePath string
	log                logger.Logger
}

func NewArchiveHandler(orch *ingest.Orchestrator, defaultArchivePath string, log logger.Logger) *ArchiveHandler {
	return &ArchiveHandler{orch: orch, defaultArchivePath: defaultArchivePath, log: log}
}

type previewRequest struct {
	FilePath string `json:"file_path"`
}

type previewDocument struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	FullPath string `json:"full_path"`
}

// Preview samples the archive synchronously and returns a small document
// sample with per-kind counts, without touching the index.
func (h *ArchiveHandler) Preview(c *gin.Context) {
	var req previewRequest
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

	result, err := h.orch.Preview(c.Request.Context(), filePath)
	if err != nil {
		var verr *archive.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error()})
			return
		}
		h.log.Error("archive preview failed",
			logger.String("path", filePath),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive preview failed"})
		return
	}

	counts := make(map[models.DocKind]int)
	docs := make([]previewDocument, 0, len(result.Documents))
	for _, doc := range result.Documents {
		counts[doc.Kind]++
		docs = append(docs, previewDocument{
			ID:       doc.ID,
			Type:     string(doc.Kind),
			Name:     doc.Name,
			FullPath: doc.FullPath,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"file":        result.FileInfo,
		"stats":       result.Stats,
		"kind_counts": counts,
		"categories":  result.Categories,
		"documents":   docs,
		"errors":      result.Errors,
	})
}
