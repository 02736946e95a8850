package extract

import (
	"strings"

	"github.com/feichai0017/onec-docsearch/internal/models"
)

// globalContextName is the archive's owning segment for the global context:
// members under it are global functions/procedures/events rather than
// object-scoped ones.
const globalContextName = "global context"

// pathClass is the result of path-shape classification. Kind is the
// candidate kind; for NeedsRefinement kinds the extractor still decides
// function vs procedure from content.
type pathClass struct {
	Kind             models.DocKind
	Object           string
	Name             string
	NeedsRefinement  bool
	FallbackKind     models.DocKind // used when no return-value heading is present
}

// classifyPath derives the candidate kind, owning object and item name from
// the archive path alone. Matching is case-insensitive and tolerant of both
// separator styles.
func classifyPath(filePath string) pathClass {
	norm := strings.ReplaceAll(filePath, `\`, "/")
	parts := strings.Split(norm, "/")

	name := parts[len(parts)-1]
	name = strings.TrimSuffix(name, ".html")

	if idx := segmentIndex(parts, "methods"); idx >= 0 {
		object := resolveOwner(parts, idx)
		if strings.EqualFold(object, globalContextName) {
			return pathClass{
				Kind:            models.KindGlobalFunction,
				Object:          object,
				Name:            name,
				NeedsRefinement: true,
				FallbackKind:    models.KindGlobalProcedure,
			}
		}
		return pathClass{
			Kind:            models.KindObjectFunction,
			Object:          object,
			Name:            name,
			NeedsRefinement: true,
			FallbackKind:    models.KindObjectProcedure,
		}
	}

	if idx := segmentIndex(parts, "properties"); idx >= 0 {
		return pathClass{
			Kind:   models.KindObjectProperty,
			Object: resolveOwner(parts, idx),
			Name:   name,
		}
	}

	if idx := segmentIndex(parts, "events"); idx >= 0 {
		object := resolveOwner(parts, idx)
		kind := models.KindObjectEvent
		if strings.EqualFold(object, globalContextName) {
			kind = models.KindGlobalEvent
		}
		return pathClass{Kind: kind, Object: object, Name: name}
	}

	if idx := segmentIndex(parts, "ctors", "ctor"); idx >= 0 {
		return pathClass{
			Kind:   models.KindObjectConstructor,
			Object: resolveOwner(parts, idx),
			Name:   name,
		}
	}

	if segmentIndex(parts, "globalfunctions", "functions") >= 0 {
		return pathClass{Kind: models.KindGlobalFunction, Name: name}
	}

	if idx := segmentIndex(parts, "objects"); idx >= 0 {
		var object string
		if idx+1 < len(parts) && !strings.HasSuffix(strings.ToLower(parts[idx+1]), ".html") {
			object = parts[idx+1]
		}
		return pathClass{Kind: models.KindObjectContainer, Object: object, Name: name}
	}

	return pathClass{Kind: models.KindObjectContainer, Name: name}
}

// segmentIndex returns the index of the first path segment equal to any of
// the given names, case-insensitively.
func segmentIndex(parts []string, names ...string) int {
	for i, part := range parts {
		for _, n := range names {
			if strings.EqualFold(part, n) {
				return i
			}
		}
	}
	return -1
}

// resolveOwner finds the owning object name for a member path: normally the
// segment right before the member-type segment. Catalog identifiers are
// archive bucketing artifacts, not object names, so when one is found the
// walk continues upward to the nearest segment that is neither a catalog
// identifier nor "objects". The walk stops at the "objects" segment; there
// is nothing above it but section roots.
func resolveOwner(parts []string, memberIdx int) string {
	if memberIdx <= 0 {
		return ""
	}
	owner := parts[memberIdx-1]
	if !isCatalogSegment(owner) {
		return owner
	}
	for j := memberIdx - 1; j >= 0; j-- {
		if strings.EqualFold(parts[j], "objects") {
			break
		}
		if !isCatalogSegment(parts[j]) {
			return parts[j]
		}
	}
	return owner
}

// isCatalogSegment reports whether the segment is an opaque catalog
// identifier like "catalog183".
func isCatalogSegment(segment string) bool {
	return strings.HasPrefix(strings.ToLower(segment), "catalog")
}
