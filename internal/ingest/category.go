package ingest

import (
	"path"
	"regexp"
	"strings"

	"github.com/feichai0017/onec-docsearch/internal/extract"
	"github.com/feichai0017/onec-docsearch/internal/models"
)

// categoryFileName is the side-file carrying section metadata inside the
// archive.
const categoryFileName = "__categories__"

var categoryVersionRe = regexp.MustCompile(`8\.\d+\.\d+`)

// parseCategory builds section metadata from one __categories__ member. The
// section name comes from the owning directory; the body is only mined for a
// version marker on lines mentioning a version. Returns false when the
// content cannot be decoded.
func parseCategory(content []byte, filePath string) (models.CategoryInfo, bool) {
	norm := strings.ReplaceAll(filePath, `\`, "/")
	section := "unknown"
	if dir := path.Dir(norm); dir != "." && dir != "/" {
		section = path.Base(dir)
	}

	text, ok := extract.DecodeContent(content)
	if !ok {
		return models.CategoryInfo{}, false
	}

	info := models.CategoryInfo{
		Name:        section,
		Section:     section,
		Description: "Раздел документации: " + section,
	}
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		if !strings.Contains(lower, "version") && !strings.Contains(lower, "версия") {
			continue
		}
		if m := categoryVersionRe.FindString(line); m != "" {
			info.VersionFrom = m
			break
		}
	}
	return info, true
}

// isCategoryFile reports whether the member path names a category side-file.
func isCategoryFile(memberPath string) bool {
	norm := strings.ReplaceAll(memberPath, `\`, "/")
	return path.Base(norm) == categoryFileName
}
