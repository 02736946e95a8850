package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/onec-docsearch/internal/archive"
	"github.com/feichai0017/onec-docsearch/internal/models"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

func testOrchestrator() *Orchestrator {
	return NewOrchestrator(logger.NewTestLogger(), DefaultConfig(), archive.DefaultConfig())
}

func TestClassifySplitsListing(t *testing.T) {
	o := testOrchestrator()
	entries := []models.ArchiveEntry{
		{Path: "objects", IsDir: true},
		{Path: "objects/Global context/methods/StrLen.html"},
		{Path: "objects/Global context/methods/Message.html"},
		{Path: "objects/Global context/events/BeforeExit.html"},
		{Path: "objects/ValueTable/ctors/ByDefault.html"},
		{Path: "objects/ValueTable/methods/Add.html"},
		{Path: "objects/Global context/__categories__"},
		{Path: "templates/page.st"},
		{Path: "readme.txt"},
	}
	result := models.NewIngestionResult(models.ArchiveInfo{})

	htmlPaths, categoryPaths := o.classify(entries, result)

	assert.Len(t, htmlPaths, 5)
	require.Len(t, categoryPaths, 1)
	assert.Equal(t, "objects/Global context/__categories__", categoryPaths[0])

	assert.Equal(t, 9, result.Stats["total_entries"])
	assert.Equal(t, 5, result.Stats["html_files"])
	assert.Equal(t, 1, result.Stats["st_files"])
	assert.Equal(t, 1, result.Stats["category_files"])
	assert.Equal(t, 2, result.Stats["global_methods_files"])
	assert.Equal(t, 1, result.Stats["global_events_files"])
	assert.Equal(t, 1, result.Stats["object_constructors_files"])
	assert.Equal(t, 1, result.Stats["other_object_files"])
}

func TestPreviewQuotaMet(t *testing.T) {
	o := testOrchestrator()
	result := models.NewIngestionResult(models.ArchiveInfo{})

	assert.False(t, o.previewQuotaMet(result))

	kinds := []models.DocKind{
		models.KindGlobalFunction,
		models.KindGlobalProcedure,
		models.KindGlobalEvent,
		models.KindObjectFunction,
		models.KindObjectProcedure,
		models.KindObjectProperty,
		models.KindObjectEvent,
		models.KindObjectConstructor,
		models.KindObjectContainer,
	}
	for _, kind := range kinds {
		for i := 0; i < o.cfg.PreviewMinPerKind; i++ {
			result.Documents = append(result.Documents, models.ReferenceDocument{Kind: kind})
		}
	}
	assert.True(t, o.previewQuotaMet(result))

	// Dropping one kind below the minimum unmeets only its buckets.
	result.Documents = result.Documents[:len(result.Documents)-o.cfg.PreviewMinPerKind]
	assert.False(t, o.previewQuotaMet(result))
	assert.True(t, o.bucketUnmet(bucketOtherObjects, result))
	assert.False(t, o.bucketUnmet(bucketGlobalMethods, result))
	assert.False(t, o.bucketUnmet(bucketCtors, result))
}

func TestBucketUnmetMapping(t *testing.T) {
	o := testOrchestrator()
	empty := models.NewIngestionResult(models.ArchiveInfo{})

	for b := bucket(0); b < bucketCount; b++ {
		assert.True(t, o.bucketUnmet(b, empty), "bucket %d should start unmet", b)
	}
}
