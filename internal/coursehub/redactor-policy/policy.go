// Политики очистки HTML для содержимого блоков.
//
// Основные возможности:
//   - InlinePolicy пропускает только разметку inline-фрагментов текстовых блоков: стили, цвета и ссылки.
//   - StripTagsPolicy удаляет всю разметку, используется для текстового превью документа.
package policy

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()
var InlinePolicy *bluemonday.Policy = bluemonday.NewPolicy()

// ColorRegexp описывает допустимые значения цвета текста и фона.
var ColorRegexp = regexp.MustCompile(`^(#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})|rgb\(\d{1,3},\s*\d{1,3},\s*\d{1,3}\)|gray|brown|red|orange|yellow|green|blue|purple|pink|cyan|magenta|transparent)$`)

func init() {
	InlinePolicy.AllowElements("strong", "em", "u", "s", "code", "span", "br")

	InlinePolicy.AllowAttrs("href").OnElements("a")
	InlinePolicy.AllowURLSchemes("http", "https", "mailto")
	InlinePolicy.AllowRelativeURLs(true)
	InlinePolicy.RequireParseableURLs(true)
	InlinePolicy.RequireNoFollowOnFullyQualifiedLinks(true)
	InlinePolicy.AddTargetBlankToFullyQualifiedLinks(true)

	InlinePolicy.AllowStyles("color", "background-color").Matching(ColorRegexp).OnElements("span")
}

// SanitizeInline очищает разметку inline-фрагмента.
func SanitizeInline(fragment string) string {
	return InlinePolicy.Sanitize(fragment)
}

// PlainText удаляет из разметки все теги.
func PlainText(fragment string) string {
	return StripTagsPolicy.Sanitize(fragment)
}
