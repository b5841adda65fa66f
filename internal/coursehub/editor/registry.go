// Пакет editor содержит реестр типов блоков, отрисовку документа в HTML и редьюсер правок.
//
// Вся работа с конкретными типами блоков идет через реестр: каждый тип описывается
// реализацией Kind, которая знает значения по умолчанию, правила нормализации свойств
// и способ отрисовки блока.
package editor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/gofrs/uuid"
	"golang.org/x/net/html"
)

var (
	ErrUnknownBlockType = edtypes.ErrUnknownBlockType
	ErrDuplicateKind    = errors.New("block kind already registered")
	ErrInvalidProp      = errors.New("invalid block prop")
)

// PropError описывает свойство блока, не прошедшее нормализацию.
type PropError struct {
	BlockID uuid.UUID
	Prop    string
	Err     error
}

func (e PropError) Error() string {
	return fmt.Sprintf("block %s: prop %q: %v", e.BlockID, e.Prop, e.Err)
}

func (e PropError) Unwrap() error {
	return e.Err
}

// Kind описывает тип блока.
type Kind interface {
	Type() edtypes.BlockType
	// Defaults возвращает новый набор свойств по умолчанию.
	Defaults() edtypes.Props
	// Normalize приводит свойства к форме типа: неизвестные ключи отбрасываются,
	// недопустимые значения заменяются значениями по умолчанию и попадают в список ошибок.
	Normalize(props edtypes.Props) (edtypes.Props, []PropError)
	HasContent() bool
	// Render возвращает узлы блока, пустой результат означает пустой фрагмент.
	Render(rc *RenderContext, b edtypes.Block) []*html.Node
}

// MediaKind - тип блока, ссылающийся на объект в хранилище.
type MediaKind interface {
	Kind
	MediaProp() string
}

// ListKind - элемент списка. Соседние блоки с одинаковым ключом контейнера
// выводятся внутри одного контейнера.
type ListKind interface {
	Kind
	ListContainer() (key string, container *html.Node)
}

type Registry struct {
	mu    sync.RWMutex
	kinds map[edtypes.BlockType]Kind
	order []edtypes.BlockType
}

func NewRegistry(kinds ...Kind) (*Registry, error) {
	r := &Registry{kinds: make(map[edtypes.BlockType]Kind)}
	for _, k := range kinds {
		if err := r.Register(k); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(k Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.kinds[k.Type()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, k.Type())
	}
	r.kinds[k.Type()] = k
	r.order = append(r.order, k.Type())
	return nil
}

func (r *Registry) Lookup(t edtypes.BlockType) (Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.kinds[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
	}
	return k, nil
}

func (r *Registry) Known(t edtypes.BlockType) bool {
	_, err := r.Lookup(t)
	return err == nil
}

// Types возвращает типы в порядке регистрации.
func (r *Registry) Types() []edtypes.BlockType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]edtypes.BlockType(nil), r.order...)
}

// NewBlock создает блок с новым id и свойствами по умолчанию.
func (r *Registry) NewBlock(t edtypes.BlockType) (edtypes.Block, error) {
	k, err := r.Lookup(t)
	if err != nil {
		return edtypes.Block{}, err
	}
	return edtypes.Block{
		ID:    uuid.Must(uuid.NewV4()),
		Type:  t,
		Props: k.Defaults(),
	}, nil
}

// NormalizeBlock возвращает копию блока с нормализованными свойствами.
// Содержимое сбрасывается у типов без inline-содержимого.
func (r *Registry) NormalizeBlock(b edtypes.Block) (edtypes.Block, []PropError, error) {
	k, err := r.Lookup(b.Type)
	if err != nil {
		return b, nil, err
	}

	res := b.Clone()
	props, perrs := k.Normalize(b.Props)
	res.Props = props
	if !k.HasContent() {
		res.Content = nil
	}
	for i := range perrs {
		perrs[i].BlockID = b.ID
	}
	return res, perrs, nil
}

// MediaRef возвращает ссылку на объект хранилища для медиа-блоков.
func (r *Registry) MediaRef(b edtypes.Block) (prop string, ref string, ok bool) {
	k, err := r.Lookup(b.Type)
	if err != nil {
		return "", "", false
	}
	mk, isMedia := k.(MediaKind)
	if !isMedia {
		return "", "", false
	}
	prop = mk.MediaProp()
	return prop, b.Props.String(prop), true
}

// DefaultRegistry возвращает реестр со всеми встроенными типами блоков.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(builtinKinds()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Default - реестр встроенных типов, используемый функциями пакета.
var Default = DefaultRegistry()
