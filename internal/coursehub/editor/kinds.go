package editor

import (
	"log/slog"
	"strconv"

	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/embed"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/inline"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	PropTextAlignment = "textAlignment"
	PropLevel         = "level"
	PropChecked       = "checked"
	PropCode          = "code"
	PropLanguage      = "language"
	PropVideoURL      = "videoUrl"
	PropUploadState   = "uploadState"
	PropCaption       = "caption"
)

// Состояния загрузки видео. Свойство uploadState принадлежит серверу.
const (
	UploadStateEmpty   = ""
	UploadStatePending = "pending"
	UploadStateReady   = "ready"
)

var alignments = []string{"left", "center", "right", "justify"}

func alignmentProp() propSpec {
	return enumProp(PropTextAlignment, "left", alignments...)
}

// base реализует общую часть Kind поверх схемы свойств.
type base struct {
	typ     edtypes.BlockType
	props   schema
	content bool
}

func (b base) Type() edtypes.BlockType { return b.typ }

func (b base) Defaults() edtypes.Props { return b.props.defaults() }

func (b base) Normalize(p edtypes.Props) (edtypes.Props, []PropError) { return b.props.normalize(p) }

func (b base) HasContent() bool { return b.content }

func el(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func alignAttrs(p edtypes.Props) []html.Attribute {
	if a := p.String(PropTextAlignment); a != "" && a != "left" {
		return []html.Attribute{{Key: "style", Val: "text-align: " + a}}
	}
	return nil
}

// textElement выводит блок с inline-содержимым, пустой текст дает пустой фрагмент.
func textElement(tag atom.Atom, b edtypes.Block, attrs ...html.Attribute) *html.Node {
	content := inline.Render(b.Content)
	if content == "" {
		return nil
	}
	n := el(tag, append(attrs, alignAttrs(b.Props)...)...)
	n.AppendChild(&html.Node{Type: html.RawNode, Data: content})
	return n
}

func nodes(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	return []*html.Node{n}
}

type paragraphKind struct{ base }

func (paragraphKind) Render(_ *RenderContext, b edtypes.Block) []*html.Node {
	return nodes(textElement(atom.P, b))
}

type headingKind struct{ base }

var headingTags = []atom.Atom{atom.H1, atom.H2, atom.H3}

func (headingKind) Render(_ *RenderContext, b edtypes.Block) []*html.Node {
	level, ok := b.Props.Int(PropLevel)
	if !ok || level < 1 || level > len(headingTags) {
		level = 1
	}
	return nodes(textElement(headingTags[level-1], b))
}

type listItemKind struct {
	base
	container atom.Atom
	attrs     []html.Attribute
}

func (k listItemKind) ListContainer() (string, *html.Node) {
	attrs := append([]html.Attribute(nil), k.attrs...)
	return string(k.typ), el(k.container, attrs...)
}

func (k listItemKind) Render(_ *RenderContext, b edtypes.Block) []*html.Node {
	var attrs []html.Attribute
	if k.typ == edtypes.TypeCheckListItem {
		attrs = append(attrs, html.Attribute{Key: "data-checked", Val: strconv.FormatBool(b.Props.Bool(PropChecked))})
	}
	return nodes(textElement(atom.Li, b, attrs...))
}

type codeKind struct{ base }

func (codeKind) Render(_ *RenderContext, b edtypes.Block) []*html.Node {
	code := b.Props.String(PropCode)
	if code == "" {
		return nil
	}
	lang := b.Props.String(PropLanguage)
	if lang == "" {
		lang = "plaintext"
	}
	pre := el(atom.Pre)
	c := el(atom.Code, html.Attribute{Key: "class", Val: "language-" + lang})
	c.AppendChild(&html.Node{Type: html.TextNode, Data: code})
	pre.AppendChild(c)
	return []*html.Node{pre}
}

type embedKind struct {
	base
	provider embed.Provider
	prop     string
}

// EmbedProp возвращает имя свойства со ссылкой и провайдера.
func (k embedKind) EmbedProp() (string, embed.Provider) {
	return k.prop, k.provider
}

func (k embedKind) Render(_ *RenderContext, b edtypes.Block) []*html.Node {
	res := embed.Validate(k.provider, b.Props.String(k.prop))
	if res.Status != embed.Valid {
		if res.Status == embed.Invalid {
			slog.Debug("Skip embed block with invalid url", "id", b.ID, "type", b.Type, "reason", res.Reason)
		}
		return nil
	}
	return []*html.Node{el(atom.Iframe,
		html.Attribute{Key: "src", Val: res.URL},
		html.Attribute{Key: "width", Val: "100%"},
		html.Attribute{Key: "height", Val: "450"},
		html.Attribute{Key: "frameborder", Val: "0"},
		html.Attribute{Key: "loading", Val: "lazy"},
		html.Attribute{Key: "allowfullscreen"},
	)}
}

// EmbedKind - тип блока со встраиваемой ссылкой стороннего сервиса.
type EmbedKind interface {
	Kind
	EmbedProp() (string, embed.Provider)
}

type videoKind struct{ base }

func (videoKind) MediaProp() string { return PropVideoURL }

// Normalize дополнительно сбрасывает состояние загрузки при пустой ссылке.
func (k videoKind) Normalize(p edtypes.Props) (edtypes.Props, []PropError) {
	res, errs := k.base.Normalize(p)
	if res.String(PropVideoURL) == "" {
		res[PropUploadState] = UploadStateEmpty
	}
	return res, errs
}

func (videoKind) Render(rc *RenderContext, b edtypes.Block) []*html.Node {
	ref := b.Props.String(PropVideoURL)
	if ref == "" || b.Props.String(PropUploadState) != UploadStateReady {
		return nil
	}

	video := el(atom.Video,
		html.Attribute{Key: "controls"},
		html.Attribute{Key: "preload", Val: "metadata"},
		html.Attribute{Key: "src", Val: rc.MediaURL(ref)},
	)
	caption := b.Props.String(PropCaption)
	if caption == "" {
		return []*html.Node{video}
	}

	figure := el(atom.Figure)
	figure.AppendChild(video)
	fc := el(atom.Figcaption)
	fc.AppendChild(&html.Node{Type: html.TextNode, Data: caption})
	figure.AppendChild(fc)
	return []*html.Node{figure}
}

func embedBlock(typ edtypes.BlockType, provider embed.Provider, prop string) embedKind {
	return embedKind{
		base:     base{typ: typ, props: schema{embedProp(prop, provider)}},
		provider: provider,
		prop:     prop,
	}
}

func builtinKinds() []Kind {
	return []Kind{
		paragraphKind{base{typ: edtypes.TypeParagraph, content: true, props: schema{alignmentProp()}}},
		headingKind{base{typ: edtypes.TypeHeading, content: true, props: schema{
			alignmentProp(),
			intRangeProp(PropLevel, 1, 1, len(headingTags)),
		}}},
		listItemKind{
			base:      base{typ: edtypes.TypeBulletListItem, content: true, props: schema{alignmentProp()}},
			container: atom.Ul,
		},
		listItemKind{
			base:      base{typ: edtypes.TypeNumberedListItem, content: true, props: schema{alignmentProp()}},
			container: atom.Ol,
		},
		listItemKind{
			base: base{typ: edtypes.TypeCheckListItem, content: true, props: schema{
				alignmentProp(),
				boolProp(PropChecked, false),
			}},
			container: atom.Ul,
			attrs:     []html.Attribute{{Key: "data-type", Val: "checkList"}},
		},
		videoKind{base{typ: edtypes.TypeVideo, props: schema{
			mediaRefProp(PropVideoURL),
			enumProp(PropUploadState, UploadStateEmpty, UploadStateEmpty, UploadStatePending, UploadStateReady),
			stringProp(PropCaption, ""),
		}}},
		codeKind{base{typ: edtypes.TypeCodeSnippet, props: schema{
			stringProp(PropCode, ""),
			languageProp(PropLanguage),
		}}},
		embedBlock(edtypes.TypeYouTube, embed.YouTube, "youtubeUrl"),
		embedBlock(edtypes.TypeFigma, embed.Figma, "figmaUrl"),
		embedBlock(edtypes.TypeCodePen, embed.CodePen, "codepenUrl"),
		embedBlock(edtypes.TypeStackBlitz, embed.StackBlitz, "stackblitzUrl"),
		embedBlock(edtypes.TypeReplit, embed.Replit, "replitUrl"),
		embedBlock(edtypes.TypeCodeSandbox, embed.CodeSandbox, "sandBoxUrl"),
	}
}
