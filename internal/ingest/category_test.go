package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestParseCategorySectionFromPath(t *testing.T) {
	info, ok := parseCategory([]byte("some text"), "objects/Global context/__categories__")

	require.True(t, ok)
	assert.Equal(t, "Global context", info.Section)
	assert.Equal(t, "Global context", info.Name)
	assert.Contains(t, info.Description, "Global context")
	assert.Empty(t, info.VersionFrom)
}

func TestParseCategoryVersionMarker(t *testing.T) {
	content := "title=Справка\nВерсия платформы: 8.3.24\nmisc=1\n"
	info, ok := parseCategory([]byte(content), "objects/catalog183/__categories__")

	require.True(t, ok)
	assert.Equal(t, "8.3.24", info.VersionFrom)
	assert.Equal(t, "catalog183", info.Section)
}

func TestParseCategoryVersionLineOnly(t *testing.T) {
	// The version pattern occurring off a version line must not count.
	content := "id=8.3.21\nname=whatever\n"
	info, ok := parseCategory([]byte(content), "a/b/__categories__")

	require.True(t, ok)
	assert.Empty(t, info.VersionFrom)
}

func TestParseCategoryWindows1251(t *testing.T) {
	raw, err := charmap.Windows1251.NewEncoder().Bytes([]byte("Версия 8.3.20\n"))
	require.NoError(t, err)

	info, ok := parseCategory(raw, `objects\Query\__categories__`)
	require.True(t, ok)
	assert.Equal(t, "8.3.20", info.VersionFrom)
	assert.Equal(t, "Query", info.Section)
}

func TestParseCategoryEmptyContent(t *testing.T) {
	_, ok := parseCategory(nil, "a/__categories__")
	assert.False(t, ok)
}

func TestIsCategoryFile(t *testing.T) {
	assert.True(t, isCategoryFile("objects/Global context/__categories__"))
	assert.True(t, isCategoryFile(`objects\Query\__categories__`))
	assert.False(t, isCategoryFile("objects/Query/index.html"))
	assert.False(t, isCategoryFile("__categories__.html"))
}

func TestBucketFor(t *testing.T) {
	cases := []struct {
		path string
		want bucket
		ok   bool
	}{
		{"objects/Global context/methods/StrLen.html", bucketGlobalMethods, true},
		{`objects\Global context\events\BeforeExit.html`, bucketGlobalEvents, true},
		{"objects/Global context/properties/Chars.html", bucketGlobalOther, true},
		{"objects/ValueTable/ctors/ByDefault.html", bucketCtors, true},
		{"objects/ValueTable/ctor/Default.html", bucketCtors, true},
		{"objects/HTTPConnection/events/OnTimeout.html", bucketObjectEvents, true},
		{"objects/ValueTable/methods/Add.html", bucketOtherObjects, true},
		{"docs/readme.html", 0, false},
	}
	for _, c := range cases {
		got, ok := bucketFor(c.path)
		assert.Equal(t, c.ok, ok, c.path)
		if c.ok {
			assert.Equal(t, c.want, got, c.path)
		}
	}
}
