// Пакет inline преобразует inline-содержимое текстовых блоков в HTML и обратно.
//
// Порядок вложенности тегов фиксирован: span(цвета) > strong > em > u > s > code > текст.
// Перевод строки внутри текста выводится как <br>.
// Parse возвращает каноническую форму: соседние фрагменты с одинаковыми стилями объединяются.
package inline

import (
	"strings"

	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	policy "github.com/aisa-it/coursehub/internal/coursehub/redactor-policy"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render возвращает очищенную разметку для списка фрагментов.
func Render(spans []edtypes.InlineSpan) string {
	var buf strings.Builder
	for _, n := range Nodes(spans) {
		if err := html.Render(&buf, n); err != nil {
			return ""
		}
	}
	return policy.SanitizeInline(buf.String())
}

// Nodes строит узлы HTML без очистки.
func Nodes(spans []edtypes.InlineSpan) []*html.Node {
	root := &html.Node{Type: html.DocumentNode}
	for _, s := range spans {
		appendSpan(root, s)
	}

	var res []*html.Node
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		root.RemoveChild(c)
		res = append(res, c)
		c = next
	}
	return res
}

func appendSpan(parent *html.Node, s edtypes.InlineSpan) {
	switch s.Type {
	case edtypes.SpanText:
		appendStyledText(parent, s.Text, s.Styles)
	case edtypes.SpanLink:
		a := element(atom.A, html.Attribute{Key: "href", Val: s.Href})
		for _, c := range s.Content {
			if c.Type == edtypes.SpanLink {
				appendStyledText(a, c.PlainText(), edtypes.Styles{})
				continue
			}
			appendSpan(a, c)
		}
		parent.AppendChild(a)
	default:
		appendStyledText(parent, s.PlainText(), edtypes.Styles{})
	}
}

func appendStyledText(parent *html.Node, text string, st edtypes.Styles) {
	if text == "" {
		return
	}

	outer, inner := wrappers(st)
	target := parent
	if outer != nil {
		parent.AppendChild(outer)
		target = inner
	}

	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			target.AppendChild(element(atom.Br))
		}
		if line != "" {
			target.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		}
	}
}

// wrappers возвращает внешний и самый вложенный элементы цепочки стилей.
func wrappers(st edtypes.Styles) (outer, inner *html.Node) {
	push := func(n *html.Node) {
		if outer == nil {
			outer, inner = n, n
			return
		}
		inner.AppendChild(n)
		inner = n
	}

	if style := colorStyle(st); style != "" {
		push(element(atom.Span, html.Attribute{Key: "style", Val: style}))
	}
	if st.Bold {
		push(element(atom.Strong))
	}
	if st.Italic {
		push(element(atom.Em))
	}
	if st.Underline {
		push(element(atom.U))
	}
	if st.Strike {
		push(element(atom.S))
	}
	if st.Code {
		push(element(atom.Code))
	}
	return outer, inner
}

func colorStyle(st edtypes.Styles) string {
	var parts []string
	if c := color(st.TextColor); c != "" {
		parts = append(parts, "color: "+c)
	}
	if c := color(st.BackgroundColor); c != "" {
		parts = append(parts, "background-color: "+c)
	}
	return strings.Join(parts, "; ")
}

func color(c string) string {
	c = strings.TrimSpace(c)
	if c == "default" || !policy.ColorRegexp.MatchString(c) {
		return ""
	}
	return c
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

// Parse разбирает inline-разметку обратно во фрагменты.
// Неизвестные теги пропускаются, их текст сохраняется.
func Parse(fragment string) []edtypes.InlineSpan {
	context := &html.Node{Type: html.ElementNode, DataAtom: atom.P, Data: "p"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil
	}

	var c collector
	for _, n := range nodes {
		c.walk(n, edtypes.Styles{})
	}
	return c.spans
}

type collector struct {
	spans []edtypes.InlineSpan
}

func (c *collector) addText(text string, st edtypes.Styles) {
	if text == "" {
		return
	}
	if n := len(c.spans); n > 0 && c.spans[n-1].Type == edtypes.SpanText && c.spans[n-1].Styles == st {
		c.spans[n-1].Text += text
		return
	}
	c.spans = append(c.spans, edtypes.StyledText(text, st))
}

func (c *collector) walk(n *html.Node, st edtypes.Styles) {
	switch n.Type {
	case html.TextNode:
		c.addText(n.Data, st)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Br:
		c.addText("\n", st)
		return
	case atom.A:
		var inner collector
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			inner.walk(ch, st)
		}
		href := attr(n, "href")
		if href == "" {
			for _, s := range inner.spans {
				c.addText(s.PlainText(), s.Styles)
			}
			return
		}
		if len(inner.spans) > 0 {
			c.spans = append(c.spans, edtypes.Link(href, inner.spans...))
		}
		return
	case atom.Strong, atom.B:
		st.Bold = true
	case atom.Em, atom.I:
		st.Italic = true
	case atom.U:
		st.Underline = true
	case atom.S, atom.Strike, atom.Del:
		st.Strike = true
	case atom.Code:
		st.Code = true
	case atom.Span:
		parseStyle(attr(n, "style"), &st)
	}

	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.walk(ch, st)
	}
}

func parseStyle(style string, st *edtypes.Styles) {
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		val = color(val)
		if val == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(prop)) {
		case "color":
			st.TextColor = val
		case "background-color":
			st.BackgroundColor = val
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
