package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/feichai0017/onec-docsearch/internal/models"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

const strLenPage = `<html><head><title>СтрДлина</title></head><body>
<h1 class="V8SH_pagetitle">СтрДлина (StrLen)</h1>
<p class="V8SH_chapter">Синтаксис:</p>
<p>СтрДлина(&lt;Строка&gt;)</p>
<p class="V8SH_chapter">Параметры:</p>
<p class="V8SH_rubric">&lt;Строка&gt; (обязательный)</p>
<p>Тип: <a href="def_String.html">Строка</a>. Строка, длину которой требуется определить.</p>
<p class="V8SH_chapter">Возвращаемое значение:</p>
<p>Тип: <a href="def_Number.html">Число</a>. Количество символов в строке.</p>
<p class="V8SH_chapter">Описание:</p>
<p>Получает количество символов в строке.</p>
<p class="V8SH_chapter">Пример:</p>
<table><tr><td class="V8SH_code">Длина = СтрДлина("Привет");<br>Сообщить(Длина);</td></tr></table>
<p class="V8SH_versionInfo">Доступен с версии 8.0.</p>
</body></html>`

const messagePage = `<html><body>
<h1 class="V8SH_pagetitle">Сообщить (Message)</h1>
<p class="V8SH_chapter">Синтаксис:</p>
<p>Сообщить(&lt;ТекстСообщения&gt;, &lt;Статус&gt;)</p>
<p class="V8SH_chapter">Параметры:</p>
<p class="V8SH_rubric">&lt;ТекстСообщения&gt;</p>
<p>Тип: <a href="def_String.html">Строка</a>. Текст выводимого сообщения.</p>
<p class="V8SH_rubric">&lt;Статус&gt; (необязательный)</p>
<p>Тип: <a href="def_MessageStatus.html">СтатусСообщения</a>. Статус сообщения.</p>
<p class="V8SH_chapter">Описание:</p>
<p>Выводит сообщение пользователю.</p>
</body></html>`

const valueTablePage = `<html><body>
<h1 class="V8SH_pagetitle">ТаблицаЗначений (ValueTable)</h1>
<p class="V8SH_chapter">Описание:</p>
<p>Объект для работы с таблицами значений в памяти.</p>
<p class="V8SH_chapter">Методы:</p>
<p><a href="methods/Add.html">Добавить (Add)</a></p>
<p><a href="methods/Clear.html">Очистить (Clear)</a></p>
<p class="V8SH_chapter">Свойства:</p>
<p><a href="properties/Columns.html">Колонки (Columns)</a></p>
<p class="V8SH_chapter">События:</p>
</body></html>`

func TestExtractFunctionWithReturnValue(t *testing.T) {
	e := NewExtractor(logger.NewTestLogger())

	doc := e.Extract([]byte(strLenPage), "objects/Global context/methods/StrLen.html")
	require.NotNil(t, doc)

	assert.Equal(t, models.KindGlobalFunction, doc.Kind)
	assert.Equal(t, "StrLen", doc.Name)
	assert.Equal(t, "Global context", doc.Object)
	assert.Equal(t, "Global context.StrLen", doc.FullPath)
	assert.Equal(t, "Global context_StrLen_global_function", doc.ID)
	assert.Contains(t, doc.SyntaxRu, "СтрДлина(")
	assert.Contains(t, doc.Description, "количество символов")
	assert.Contains(t, doc.ReturnType, "Число")
	assert.Equal(t, "8.0", doc.VersionFrom)

	require.Len(t, doc.Parameters, 1)
	assert.Equal(t, "Строка", doc.Parameters[0].Name)
	assert.Equal(t, "Строка", doc.Parameters[0].Type)
	assert.True(t, doc.Parameters[0].Required)

	require.Len(t, doc.Examples, 1)
	assert.Contains(t, doc.Examples[0], `Длина = СтрДлина("Привет");`)
	assert.Contains(t, doc.Examples[0], "\n", "markup line breaks must survive")
}

func TestExtractProcedureWithoutReturnValue(t *testing.T) {
	e := NewExtractor(logger.NewTestLogger())

	doc := e.Extract([]byte(messagePage), "objects/Global context/methods/Message.html")
	require.NotNil(t, doc)

	assert.Equal(t, models.KindGlobalProcedure, doc.Kind)
	assert.Empty(t, doc.ReturnType)

	require.Len(t, doc.Parameters, 2)
	assert.Equal(t, "ТекстСообщения", doc.Parameters[0].Name)
	assert.True(t, doc.Parameters[0].Required)
	assert.Equal(t, "Статус", doc.Parameters[1].Name)
	assert.False(t, doc.Parameters[1].Required)
	assert.Equal(t, "СтатусСообщения", doc.Parameters[1].Type)
}

func TestExtractObjectMethodRefinement(t *testing.T) {
	e := NewExtractor(logger.NewTestLogger())

	fn := e.Extract([]byte(strLenPage), "objects/ValueTable/methods/Find.html")
	require.NotNil(t, fn)
	assert.Equal(t, models.KindObjectFunction, fn.Kind)

	proc := e.Extract([]byte(messagePage), "objects/ValueTable/methods/Clear.html")
	require.NotNil(t, proc)
	assert.Equal(t, models.KindObjectProcedure, proc.Kind)
}

func TestExtractCatalogOwnedMethod(t *testing.T) {
	e := NewExtractor(logger.NewTestLogger())

	doc := e.Extract([]byte(strLenPage), "objects/Catalog1/methods/StrLen.html")
	require.NotNil(t, doc)

	assert.Equal(t, models.KindObjectFunction, doc.Kind)
	assert.Equal(t, "Catalog1", doc.Object)
	assert.Len(t, doc.Parameters, 1)
	assert.Len(t, doc.Examples, 1)
}

func TestExtractObjectContainerMembers(t *testing.T) {
	e := NewExtractor(logger.NewTestLogger())

	doc := e.Extract([]byte(valueTablePage), "objects/ValueTable/ValueTable.html")
	require.NotNil(t, doc)

	assert.Equal(t, models.KindObjectContainer, doc.Kind)
	require.Len(t, doc.Methods, 2)
	assert.Equal(t, "Добавить", doc.Methods[0].Name)
	assert.Equal(t, "Add", doc.Methods[0].NameEn)
	assert.Equal(t, "methods/Add.html", doc.Methods[0].Href)

	require.Len(t, doc.Properties, 1)
	assert.Equal(t, "Колонки", doc.Properties[0].Name)
	assert.Equal(t, "Columns", doc.Properties[0].NameEn)

	assert.Empty(t, doc.Events)
}

func TestExtractWindows1251Content(t *testing.T) {
	raw, err := charmap.Windows1251.NewEncoder().Bytes([]byte(messagePage))
	require.NoError(t, err)

	e := NewExtractor(logger.NewTestLogger())
	doc := e.Extract(raw, "objects/Global context/methods/Message.html")
	require.NotNil(t, doc)

	assert.Contains(t, doc.Description, "Выводит сообщение")
	require.Len(t, doc.Parameters, 2)
	assert.Equal(t, "ТекстСообщения", doc.Parameters[0].Name)
}

func TestExtractEmptyContent(t *testing.T) {
	log := logger.NewTestLogger()
	e := NewExtractor(log)

	assert.Nil(t, e.Extract(nil, "objects/X/methods/Y.html"))
	assert.Nil(t, e.Extract([]byte{}, "objects/X/methods/Y.html"))
	assert.NotEmpty(t, log.GetEntries())
}

func TestExtractMissingSectionsLeaveFieldsEmpty(t *testing.T) {
	page := `<html><body><h1>Пустая страница</h1><p>Короткое описание страницы.</p></body></html>`
	e := NewExtractor(logger.NewTestLogger())

	doc := e.Extract([]byte(page), "objects/Thing/properties/Name.html")
	require.NotNil(t, doc)

	assert.Equal(t, models.KindObjectProperty, doc.Kind)
	assert.Empty(t, doc.Parameters)
	assert.Empty(t, doc.Examples)
	assert.Empty(t, doc.ReturnType)
	assert.Equal(t, "Короткое описание страницы.", doc.Description)
}

func TestExtractDeterministic(t *testing.T) {
	e := NewExtractor(logger.NewTestLogger())
	path := "objects/Global context/methods/StrLen.html"

	first := e.Extract([]byte(strLenPage), path)
	require.NotNil(t, first)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, e.Extract([]byte(strLenPage), path))
	}
}

func TestDecodeContentChain(t *testing.T) {
	utf8Text := "привет"
	out, ok := DecodeContent([]byte(utf8Text))
	assert.True(t, ok)
	assert.Equal(t, utf8Text, out)

	cp1251, err := charmap.Windows1251.NewEncoder().Bytes([]byte(utf8Text))
	require.NoError(t, err)
	out, ok = DecodeContent(cp1251)
	assert.True(t, ok)
	assert.Equal(t, utf8Text, out)

	_, ok = DecodeContent(nil)
	assert.False(t, ok)
}

func TestMatchesHeading(t *testing.T) {
	assert.True(t, matchesHeading("Синтаксис:", syntaxTitles...))
	assert.True(t, matchesHeading("  Return value  ", returnTitles...))
	assert.True(t, matchesHeading("ПАРАМЕТРЫ:", paramTitles...))
	assert.False(t, matchesHeading("Синтаксис (англ.):", syntaxTitles...))
	assert.False(t, matchesHeading("Примечание:", exampleTitles...))
}

func TestParseParameterHeading(t *testing.T) {
	p := parseParameterHeading("<Строка> (обязательный)")
	assert.Equal(t, "Строка", p.Name)
	assert.True(t, p.Required)

	p = parseParameterHeading("<Статус> (необязательный)")
	assert.Equal(t, "Статус", p.Name)
	assert.False(t, p.Required)

	p = parseParameterHeading("<Value> (optional)")
	assert.Equal(t, "Value", p.Name)
	assert.False(t, p.Required)
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, "a b c", collapse("  a\n\tb   c "))
	assert.Equal(t, "", collapse("  \n "))
	assert.False(t, strings.Contains(collapse("x\ny"), "\n"))
}
