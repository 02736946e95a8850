package extract

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/feichai0017/onec-docsearch/internal/models"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

// headingSelector matches the structural heading marker used throughout the
// help markup to demarcate subsections. Every field extractor scans the
// sibling content between one such heading and the next.
const headingSelector = "p.V8SH_chapter"

var (
	versionRe   = regexp.MustCompile(`8\.\d+(?:\.\d+)?`)
	brRe        = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	wsRe        = regexp.MustCompile(`\s+`)
	memberRe    = regexp.MustCompile(`^(.*?)\s*\(([^()]+)\)\s*$`)
	optionalRe  = regexp.MustCompile(`(?i)\((?:необязательный|optional)\)`)
	parenTailRe = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
)

// Heading titles per field, Russian first. Matching is exact after trimming
// the trailing colon.
var (
	syntaxTitles    = []string{"синтаксис", "syntax"}
	syntaxAltTitles = []string{"синтаксис (англ.)", "english syntax"}
	paramTitles     = []string{"параметры", "parameters"}
	returnTitles    = []string{"возвращаемое значение", "return value", "returns"}
	descTitles      = []string{"описание", "description"}
	exampleTitles   = []string{"пример", "примеры", "example", "examples"}
	usageTitles     = []string{"использование", "usage"}
	methodsTitles   = []string{"методы", "methods"}
	propsTitles     = []string{"свойства", "properties"}
	eventsTitles    = []string{"события", "events"}
)

// Extractor turns one archive member's raw bytes plus its path into zero or
// one reference document.
type Extractor struct {
	log logger.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(log logger.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract parses one member. Malformed or undecodable input yields nil:
// per-document failures must never abort the batch, so every failure path
// logs and returns nothing.
func (e *Extractor) Extract(content []byte, filePath string) (doc *models.ReferenceDocument) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("document extraction panicked",
				logger.String("path", filePath),
				logger.Any("cause", r),
			)
			doc = nil
		}
	}()

	text, ok := DecodeContent(content)
	if !ok {
		e.log.Warn("could not decode member content", logger.String("path", filePath))
		return nil
	}

	root, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		e.log.Warn("could not parse member markup",
			logger.String("path", filePath),
			logger.Error(err),
		)
		return nil
	}

	cls := classifyPath(filePath)
	kind := cls.Kind
	if cls.NeedsRefinement && !hasSection(root, returnTitles...) {
		kind = cls.FallbackKind
	}

	d := &models.ReferenceDocument{
		Kind:       kind,
		Name:       cls.Name,
		Object:     cls.Object,
		SourceFile: filePath,
	}

	e.extractTitle(root, d)
	e.extractDescription(root, d)
	e.extractSyntax(root, d)
	e.extractParameters(root, d)
	e.extractReturnType(root, d)
	e.extractUsage(root, d)
	e.extractExamples(root, d)
	e.extractVersion(root, d)
	if kind == models.KindObjectContainer {
		e.extractMembers(root, d)
	}

	d.Finalize()
	e.log.Debug("member extracted",
		logger.String("path", filePath),
		logger.String("fullPath", d.FullPath),
		logger.String("kind", string(d.Kind)),
	)
	return d
}

// section returns the sibling content between the first heading matching
// one of the titles and the next heading, or nil when the heading is
// absent. A missing heading just means the field stays empty.
func section(root *goquery.Document, titles ...string) *goquery.Selection {
	var sel *goquery.Selection
	root.Find(headingSelector).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if matchesHeading(h.Text(), titles...) {
			sel = h.NextUntil(headingSelector)
			return false
		}
		return true
	})
	return sel
}

func hasSection(root *goquery.Document, titles ...string) bool {
	found := false
	root.Find(headingSelector).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if matchesHeading(h.Text(), titles...) {
			found = true
			return false
		}
		return true
	})
	return found
}

func matchesHeading(text string, titles ...string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimSpace(strings.TrimSuffix(t, ":"))
	for _, title := range titles {
		if t == title {
			return true
		}
	}
	return false
}

func (e *Extractor) extractTitle(root *goquery.Document, d *models.ReferenceDocument) {
	// Strategy order: page title heading, any h1, the document title.
	for _, sel := range []string{"h1.V8SH_pagetitle", "h1", "title"} {
		if t := collapse(root.Find(sel).First().Text()); t != "" {
			if d.Name == "" {
				d.Name = t
			}
			return
		}
	}
}

func (e *Extractor) extractDescription(root *goquery.Document, d *models.ReferenceDocument) {
	if sec := section(root, descTitles...); sec != nil {
		if t := collapse(sec.Text()); t != "" {
			d.Description = t
			return
		}
	}
	// Fallback: the first paragraph that is not a structural heading.
	root.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if p.HasClass("V8SH_chapter") {
			return true
		}
		if t := collapse(p.Text()); len(t) > 10 {
			d.Description = t
			return false
		}
		return true
	})
}

func (e *Extractor) extractSyntax(root *goquery.Document, d *models.ReferenceDocument) {
	if sec := section(root, syntaxTitles...); sec != nil {
		d.SyntaxRu = collapse(sec.Text())
	}
	if sec := section(root, syntaxAltTitles...); sec != nil {
		d.SyntaxEn = collapse(sec.Text())
	}
	if d.SyntaxRu != "" || d.Name == "" {
		return
	}
	// Fallback: a short body line that looks like a call of this item.
	for _, line := range strings.Split(root.Text(), "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(line, d.Name) && strings.Contains(line, "(") &&
			len(line) < 200 && !strings.HasPrefix(line, "//") {
			d.SyntaxRu = line
			return
		}
	}
}

func (e *Extractor) extractParameters(root *goquery.Document, d *models.ReferenceDocument) {
	sec := section(root, paramTitles...)
	if sec == nil {
		return
	}

	// Strategy A: rubric blocks. Each parameter starts with a rubric node
	// carrying the angle-bracketed name; its description spans the following
	// siblings, where the first hyperlink points at the type definition.
	var current *models.Parameter
	var desc []string
	flush := func() {
		if current == nil {
			return
		}
		current.Description = collapse(strings.Join(desc, " "))
		d.Parameters = append(d.Parameters, *current)
		current, desc = nil, nil
	}
	sec.Each(func(_ int, n *goquery.Selection) {
		if n.HasClass("V8SH_rubric") {
			flush()
			p := parseParameterHeading(n.Text())
			current = &p
			return
		}
		if current == nil {
			return
		}
		if current.Type == "" {
			if link := n.Find("a").First(); link.Length() > 0 {
				current.Type = collapse(link.Text())
			}
		}
		if t := strings.TrimSpace(n.Text()); t != "" {
			desc = append(desc, t)
		}
	})
	flush()
	if len(d.Parameters) > 0 {
		return
	}

	// Strategy B: parameter tables: name, description, optional type column.
	sec.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		name := collapse(cells.Eq(0).Text())
		if name == "" || matchesHeading(name, "имя", "name") {
			return
		}
		p := models.Parameter{
			Name:        name,
			Description: collapse(cells.Eq(1).Text()),
			Required:    true,
		}
		if cells.Length() > 2 {
			p.Type = collapse(cells.Eq(2).Text())
		}
		d.Parameters = append(d.Parameters, p)
	})
}

// parseParameterHeading parses "<Имя> (необязательный)" style rubric text.
func parseParameterHeading(text string) models.Parameter {
	t := collapse(text)
	required := !optionalRe.MatchString(t)
	t = optionalRe.ReplaceAllString(t, "")
	t = parenTailRe.ReplaceAllString(t, "")
	t = strings.Trim(strings.TrimSpace(t), "<>")
	return models.Parameter{Name: strings.TrimSpace(t), Required: required}
}

func (e *Extractor) extractReturnType(root *goquery.Document, d *models.ReferenceDocument) {
	sec := section(root, returnTitles...)
	if sec == nil {
		return
	}
	full := collapse(sec.Text())
	typeName := ""
	if link := sec.Find("a").First(); link.Length() > 0 {
		typeName = collapse(link.Text())
	}
	switch {
	case typeName != "" && full != "" && !strings.HasPrefix(full, typeName):
		d.ReturnType = typeName + ". " + full
	case full != "":
		d.ReturnType = full
	default:
		d.ReturnType = typeName
	}
}

func (e *Extractor) extractUsage(root *goquery.Document, d *models.ReferenceDocument) {
	if sec := section(root, usageTitles...); sec != nil {
		d.Usage = collapse(sec.Text())
	}
}

func (e *Extractor) extractExamples(root *goquery.Document, d *models.ReferenceDocument) {
	sec := section(root, exampleTitles...)
	if sec == nil {
		return
	}
	// Code is carried in monospace-styled table cells (or pre blocks); line
	// breaks inside them are markup and must survive as newlines.
	sec.Find("td.V8SH_code, pre, code").Each(func(_ int, cell *goquery.Selection) {
		raw, err := cell.Html()
		if err != nil {
			return
		}
		text := brRe.ReplaceAllString(raw, "\n")
		text = tagRe.ReplaceAllString(text, "")
		text = html.UnescapeString(text)
		var lines []string
		for _, line := range strings.Split(text, "\n") {
			lines = append(lines, strings.TrimRight(line, " \t\r"))
		}
		text = strings.TrimSpace(strings.Join(lines, "\n"))
		if text != "" {
			d.Examples = append(d.Examples, text)
		}
	})
}

func (e *Extractor) extractVersion(root *goquery.Document, d *models.ReferenceDocument) {
	root.Find("p.V8SH_versionInfo, span.V8SH_versionInfo").EachWithBreak(func(_ int, n *goquery.Selection) bool {
		if m := versionRe.FindString(n.Text()); m != "" {
			d.VersionFrom = m
			return false
		}
		return true
	})
}

func (e *Extractor) extractMembers(root *goquery.Document, d *models.ReferenceDocument) {
	d.Methods = collectMembers(root, methodsTitles)
	d.Properties = collectMembers(root, propsTitles)
	d.Events = collectMembers(root, eventsTitles)
}

// collectMembers gathers every hyperlink in a member-list section. Display
// text like "Добавить (Add)" splits into the localized and alternate names.
func collectMembers(root *goquery.Document, titles []string) []models.ObjectMember {
	sec := section(root, titles...)
	if sec == nil {
		return nil
	}
	var members []models.ObjectMember
	sec.Find("a").Each(func(_ int, link *goquery.Selection) {
		text := collapse(link.Text())
		if text == "" {
			return
		}
		member := models.ObjectMember{Name: text}
		if m := memberRe.FindStringSubmatch(text); m != nil {
			member.Name = strings.TrimSpace(m[1])
			member.NameEn = strings.TrimSpace(m[2])
		}
		member.Href, _ = link.Attr("href")
		members = append(members, member)
	})
	return members
}

// collapse trims and squeezes whitespace runs to single spaces.
func collapse(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}
