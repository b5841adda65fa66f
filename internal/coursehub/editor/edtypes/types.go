// Пакет edtypes содержит базовые типы блочного документа: блоки, свойства блоков и inline-содержимое.
// Типы не зависят от реестра блоков и могут использоваться слоем хранения напрямую.
package edtypes

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/gofrs/uuid"
)

type BlockType string

const (
	TypeParagraph        BlockType = "paragraph"
	TypeHeading          BlockType = "heading"
	TypeBulletListItem   BlockType = "bulletListItem"
	TypeNumberedListItem BlockType = "numberedListItem"
	TypeCheckListItem    BlockType = "checkListItem"
	TypeVideo            BlockType = "video"
	TypeCodeSnippet      BlockType = "codeSnippet"
	TypeCodeSandbox      BlockType = "codesandbox"
	TypeStackBlitz       BlockType = "stackblitz"
	TypeFigma            BlockType = "figma"
	TypeCodePen          BlockType = "codepen"
	TypeReplit           BlockType = "replit"
	TypeYouTube          BlockType = "youtube"
)

// Block - одна единица содержимого документа.
// ID равный uuid.Nil означает, что блок еще не сохранен.
type Block struct {
	ID       uuid.UUID `json:"id"`
	Type     BlockType `json:"type"`
	Position int       `json:"position"`
	Props    Props     `json:"props"`
	Content  Content   `json:"content,omitempty"`
}

type blockJSON struct {
	ID       string    `json:"id"`
	Type     BlockType `json:"type"`
	Position int       `json:"position"`
	Props    Props     `json:"props"`
	Content  Content   `json:"content,omitempty"`
}

// MarshalJSON сериализует блок, несохраненный блок получает пустой id.
func (b Block) MarshalJSON() ([]byte, error) {
	raw := blockJSON{
		Type:     b.Type,
		Position: b.Position,
		Props:    b.Props,
		Content:  b.Content,
	}
	if !b.ID.IsNil() {
		raw.ID = b.ID.String()
	}
	if raw.Props == nil {
		raw.Props = Props{}
	}
	return json.Marshal(raw)
}

// UnmarshalJSON принимает пустой или отсутствующий id как признак нового блока.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id := uuid.Nil
	if raw.ID != "" {
		var err error
		id, err = uuid.FromString(raw.ID)
		if err != nil {
			return fmt.Errorf("block id %q: %w", raw.ID, err)
		}
	}

	*b = Block{
		ID:       id,
		Type:     raw.Type,
		Position: raw.Position,
		Props:    raw.Props,
		Content:  raw.Content,
	}
	if b.Props == nil {
		b.Props = Props{}
	}
	return nil
}

// Clone возвращает копию блока, не разделяющую props с исходным.
func (b Block) Clone() Block {
	c := b
	c.Props = b.Props.Clone()
	if b.Content != nil {
		c.Content = make(Content, len(b.Content))
		copy(c.Content, b.Content)
	}
	return c
}

// Equal сравнивает блоки по типу, позиции, свойствам и содержимому. ID не учитывается.
func Equal(a, b Block) bool {
	if a.Type != b.Type || a.Position != b.Position {
		return false
	}
	return a.Props.Equal(b.Props) && a.Content.Equal(b.Content)
}

// Props - набор свойств блока. Форма набора определяется реестром для каждого типа блока.
type Props map[string]any

func (p Props) String(key string) string {
	s, _ := p[key].(string)
	return s
}

func (p Props) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Int читает числовое свойство, из JSON числа приходят как float64.
func (p Props) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func (p Props) Clone() Props {
	if p == nil {
		return Props{}
	}
	return maps.Clone(p)
}

// Equal сравнивает свойства через каноническое JSON представление, чтобы 1 и 1.0 совпадали.
func (p Props) Equal(other Props) bool {
	a, errA := json.Marshal(p.orEmpty())
	b, errB := json.Marshal(other.orEmpty())
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

func (p Props) orEmpty() Props {
	if p == nil {
		return Props{}
	}
	return p
}

func (p Props) Value() (driver.Value, error) {
	return json.Marshal(p.orEmpty())
}

func (p *Props) Scan(value interface{}) error {
	data, err := scanBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*p = Props{}
		return nil
	}
	res := Props{}
	if err := json.Unmarshal(data, &res); err != nil {
		return err
	}
	*p = res
	return nil
}

func (Props) GormDataType() string {
	return "jsonb"
}

// Content - inline-содержимое текстовых блоков.
type Content []InlineSpan

func (c Content) Equal(other Content) bool {
	if len(c) == 0 && len(other) == 0 {
		return true
	}
	a, errA := json.Marshal(c)
	b, errB := json.Marshal(other)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

func (c Content) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]InlineSpan(c))
}

func (c *Content) Scan(value interface{}) error {
	data, err := scanBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*c = nil
		return nil
	}
	var spans []InlineSpan
	if err := json.Unmarshal(data, &spans); err != nil {
		return err
	}
	if len(spans) == 0 {
		spans = nil
	}
	*c = spans
	return nil
}

func (Content) GormDataType() string {
	return "jsonb"
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}
}

type SpanType string

const (
	SpanText SpanType = "text"
	SpanLink SpanType = "link"
)

// Styles - поддерживаемые inline-стили текста.
type Styles struct {
	Bold            bool   `json:"bold,omitempty"`
	Italic          bool   `json:"italic,omitempty"`
	Underline       bool   `json:"underline,omitempty"`
	Strike          bool   `json:"strike,omitempty"`
	Code            bool   `json:"code,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// InlineSpan - фрагмент текста со стилями либо ссылка, содержащая текстовые фрагменты.
// Неизвестные типы фрагментов сохраняются и выводятся как обычный текст.
type InlineSpan struct {
	Type    SpanType     `json:"type"`
	Text    string       `json:"text,omitempty"`
	Styles  Styles       `json:"styles,omitzero"`
	Href    string       `json:"href,omitempty"`
	Content []InlineSpan `json:"content,omitempty"`
}

// PlainText возвращает текст фрагмента без форматирования.
func (s InlineSpan) PlainText() string {
	if len(s.Content) == 0 {
		return s.Text
	}
	var buf bytes.Buffer
	buf.WriteString(s.Text)
	for _, child := range s.Content {
		buf.WriteString(child.PlainText())
	}
	return buf.String()
}

func Text(text string) InlineSpan {
	return InlineSpan{Type: SpanText, Text: text}
}

func StyledText(text string, styles Styles) InlineSpan {
	return InlineSpan{Type: SpanText, Text: text, Styles: styles}
}

func Link(href string, content ...InlineSpan) InlineSpan {
	return InlineSpan{Type: SpanLink, Href: href, Content: content}
}
