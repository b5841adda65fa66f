package editor

import (
	"errors"
	"fmt"

	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/gofrs/uuid"
)

var (
	ErrBlockNotFound   = errors.New("block not found")
	ErrNoContent       = errors.New("block type has no inline content")
	ErrServerOwnedProp = errors.New("prop is managed by server")
	ErrDuplicateID     = errors.New("block id already in document")
)

// Intent - правка документа. Каждая правка либо применяется целиком, либо не меняет документ.
type Intent interface {
	apply(r *Reducer) error
}

// SetProp задает одно свойство блока. Ссылки встраиваемых блоков проверяются сразу.
type SetProp struct {
	BlockID uuid.UUID
	Key     string
	Value   any
}

type SetContent struct {
	BlockID uuid.UUID
	Content []edtypes.InlineSpan
}

// InsertBlocks вставляет блоки после AfterID, uuid.Nil означает начало документа.
type InsertBlocks struct {
	AfterID uuid.UUID
	Blocks  []edtypes.Block
}

// ReplaceBlocks заменяет непрерывный диапазон блоков.
type ReplaceBlocks struct {
	TargetIDs []uuid.UUID
	Blocks    []edtypes.Block
}

type RemoveBlock struct {
	BlockID uuid.UUID
}

// MoveBlock переносит блок на индекс ToIndex, индекс ограничивается границами документа.
type MoveBlock struct {
	BlockID uuid.UUID
	ToIndex int
}

// Reducer владеет документом редактора и применяет к нему правки последовательно.
// Reducer не предназначен для конкурентного использования.
type Reducer struct {
	reg *Registry
	doc edtypes.Document
}

func NewReducer(reg *Registry, doc edtypes.Document) *Reducer {
	d := doc.Clone()
	d.SortByPosition()
	d.NormalizePositions()
	return &Reducer{reg: reg, doc: d}
}

// Apply применяет правки по порядку и останавливается на первой ошибке.
func (r *Reducer) Apply(intents ...Intent) error {
	for _, i := range intents {
		if err := i.apply(r); err != nil {
			return err
		}
		r.doc.NormalizePositions()
	}
	return nil
}

// Document возвращает копию текущего документа.
func (r *Reducer) Document() edtypes.Document {
	return r.doc.Clone()
}

func (r *Reducer) find(id uuid.UUID) (int, error) {
	idx := r.doc.Index(id)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return idx, nil
}

// prepare нормализует новые блоки и выдает id несохраненным.
// Id новых блоков не должны совпадать с id блоков документа, кроме заменяемых.
func (r *Reducer) prepare(blocks []edtypes.Block, replaced ...uuid.UUID) ([]edtypes.Block, error) {
	taken := make(map[uuid.UUID]struct{}, len(r.doc.Blocks))
	for _, b := range r.doc.Blocks {
		taken[b.ID] = struct{}{}
	}
	for _, id := range replaced {
		delete(taken, id)
	}

	res := make([]edtypes.Block, 0, len(blocks))
	for _, b := range blocks {
		nb, perrs, err := r.reg.NormalizeBlock(b)
		if err != nil {
			return nil, err
		}
		if len(perrs) > 0 {
			return nil, perrs[0]
		}
		if nb.ID.IsNil() {
			nb.ID = uuid.Must(uuid.NewV4())
		}
		if _, ok := taken[nb.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, nb.ID)
		}
		taken[nb.ID] = struct{}{}
		res = append(res, nb)
	}
	return res, nil
}

func (i SetProp) apply(r *Reducer) error {
	idx, err := r.find(i.BlockID)
	if err != nil {
		return err
	}
	b := r.doc.Blocks[idx]
	k, err := r.reg.Lookup(b.Type)
	if err != nil {
		return err
	}
	if i.Key == PropUploadState {
		return PropError{BlockID: b.ID, Prop: i.Key, Err: ErrServerOwnedProp}
	}

	props := b.Props.Clone()
	props[i.Key] = i.Value
	norm, perrs := k.Normalize(props)
	for _, pe := range perrs {
		if pe.Prop == i.Key {
			pe.BlockID = b.ID
			return pe
		}
	}
	if _, ok := norm[i.Key]; !ok {
		return PropError{BlockID: b.ID, Prop: i.Key, Err: fmt.Errorf("%w: %s has no such prop", ErrInvalidProp, b.Type)}
	}

	r.doc.Blocks[idx].Props = norm
	return nil
}

func (i SetContent) apply(r *Reducer) error {
	idx, err := r.find(i.BlockID)
	if err != nil {
		return err
	}
	k, err := r.reg.Lookup(r.doc.Blocks[idx].Type)
	if err != nil {
		return err
	}
	if !k.HasContent() {
		return fmt.Errorf("%w: %s", ErrNoContent, k.Type())
	}
	r.doc.Blocks[idx].Content = append(edtypes.Content(nil), i.Content...)
	return nil
}

func (i InsertBlocks) apply(r *Reducer) error {
	at := 0
	if !i.AfterID.IsNil() {
		idx, err := r.find(i.AfterID)
		if err != nil {
			return err
		}
		at = idx + 1
	}

	blocks, err := r.prepare(i.Blocks)
	if err != nil {
		return err
	}

	res := make([]edtypes.Block, 0, len(r.doc.Blocks)+len(blocks))
	res = append(res, r.doc.Blocks[:at]...)
	res = append(res, blocks...)
	res = append(res, r.doc.Blocks[at:]...)
	r.doc.Blocks = res
	return nil
}

func (i ReplaceBlocks) apply(r *Reducer) error {
	blocks, err := r.prepare(i.Blocks, i.TargetIDs...)
	if err != nil {
		return err
	}
	return r.doc.ReplaceRange(i.TargetIDs, blocks)
}

func (i RemoveBlock) apply(r *Reducer) error {
	idx, err := r.find(i.BlockID)
	if err != nil {
		return err
	}
	r.doc.Blocks = append(r.doc.Blocks[:idx:idx], r.doc.Blocks[idx+1:]...)
	return nil
}

func (i MoveBlock) apply(r *Reducer) error {
	idx, err := r.find(i.BlockID)
	if err != nil {
		return err
	}
	b := r.doc.Blocks[idx]
	rest := append(r.doc.Blocks[:idx:idx], r.doc.Blocks[idx+1:]...)

	to := max(0, min(i.ToIndex, len(rest)))
	res := make([]edtypes.Block, 0, len(r.doc.Blocks))
	res = append(res, rest[:to]...)
	res = append(res, b)
	res = append(res, rest[to:]...)
	r.doc.Blocks = res
	return nil
}
