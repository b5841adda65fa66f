package editor

import (
	"log/slog"
	"strings"

	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	policy "github.com/aisa-it/coursehub/internal/coursehub/redactor-policy"
	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"
)

var emailMinifier *minify.M = minify.New()

func init() {
	emailMinifier.Add("text/html", &mhtml.Minifier{
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepDefaultAttrVals: true,
	})
}

// RenderOptions задает внешние зависимости отрисовки.
type RenderOptions struct {
	// MediaURL строит адрес воспроизведения по ссылке на объект хранилища.
	// По умолчанию используется относительный адрес прокси /api/media/<ref>/.
	MediaURL func(ref string) string
}

// MediaProxyURL возвращает построитель адресов медиа-прокси для базового адреса сервиса.
// Адрес прокси не зависит от времени, поэтому HTML документа остается детерминированным.
func MediaProxyURL(webURL string) func(ref string) string {
	base := strings.TrimSuffix(webURL, "/")
	return func(ref string) string {
		return base + "/api/media/" + ref + "/"
	}
}

// Fingerprint возвращает строку, которая меняется вместе с результатом отрисовки при смене опций.
// Используется как часть ключа кэша HTML.
func (o RenderOptions) Fingerprint() string {
	rc := RenderContext{opts: o}
	return rc.MediaURL("{ref}")
}

type RenderContext struct {
	opts RenderOptions
}

func (rc *RenderContext) MediaURL(ref string) string {
	if rc.opts.MediaURL == nil {
		return MediaProxyURL("")(ref)
	}
	return rc.opts.MediaURL(ref)
}

// Render отрисовывает документ встроенным реестром.
func Render(doc edtypes.Document, opts RenderOptions) string {
	return Default.Render(doc, opts)
}

// Render отрисовывает документ в HTML. Блоки сортируются по позиции,
// соседние элементы списков одного вида объединяются в общий контейнер.
// Результат зависит только от документа и опций.
func (r *Registry) Render(doc edtypes.Document, opts RenderOptions) string {
	sorted := doc.Clone()
	sorted.SortByPosition()
	rc := &RenderContext{opts: opts}

	var buf strings.Builder
	var list *html.Node
	var listKey string
	flush := func() {
		if list != nil {
			render(&buf, list)
			list, listKey = nil, ""
		}
	}

	for _, b := range sorted.Blocks {
		k, err := r.Lookup(b.Type)
		if err != nil {
			slog.Debug("Skip unknown block", "id", b.ID, "type", b.Type)
			flush()
			continue
		}

		out := k.Render(rc, b)
		lk, isList := k.(ListKind)
		if len(out) == 0 {
			slog.Debug("Skip empty block", "id", b.ID, "type", b.Type)
			if !isList {
				flush()
			}
			continue
		}

		if isList {
			key, container := lk.ListContainer()
			if list == nil || key != listKey {
				flush()
				list, listKey = container, key
			}
			for _, n := range out {
				list.AppendChild(n)
			}
			continue
		}

		flush()
		for _, n := range out {
			render(&buf, n)
		}
	}
	flush()
	return buf.String()
}

func render(buf *strings.Builder, n *html.Node) {
	if err := html.Render(buf, n); err != nil {
		slog.Error("Render html node", "node", n.Data, "err", err)
	}
}

// RenderEmail отрисовывает документ и минифицирует результат для тела письма.
func RenderEmail(doc edtypes.Document, opts RenderOptions) (string, error) {
	return Default.RenderEmail(doc, opts)
}

func (r *Registry) RenderEmail(doc edtypes.Document, opts RenderOptions) (string, error) {
	return emailMinifier.String("text/html", r.Render(doc, opts))
}

// PlainText возвращает текстовое превью документа, по строке на блок.
func PlainText(doc edtypes.Document) string {
	return Default.PlainText(doc)
}

func (r *Registry) PlainText(doc edtypes.Document) string {
	sorted := doc.Clone()
	sorted.SortByPosition()

	var lines []string
	for _, b := range sorted.Blocks {
		if k, err := r.Lookup(b.Type); err != nil || !k.HasContent() {
			continue
		}
		single := edtypes.Document{Blocks: []edtypes.Block{b}}
		text := strings.TrimSpace(html.UnescapeString(policy.PlainText(r.Render(single, RenderOptions{}))))
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}
