package edtypes

import (
	"cmp"
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/gofrs/uuid"
)

var (
	ErrUnknownBlockType  = errors.New("unknown block type")
	ErrInvalidPosition   = errors.New("invalid block position")
	ErrDuplicatePosition = errors.New("duplicate block position")
	ErrDuplicateBlockID  = errors.New("duplicate block id")
	ErrRangeNotFound     = errors.New("target block range not found")
)

// TypeChecker сообщает, зарегистрирован ли тип блока. Реализуется реестром редактора.
type TypeChecker interface {
	Known(t BlockType) bool
}

// Document - упорядоченная последовательность блоков.
type Document struct {
	Blocks []Block
}

func (d Document) MarshalJSON() ([]byte, error) {
	if d.Blocks == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.Blocks)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return err
	}
	d.Blocks = blocks
	return nil
}

func (d Document) Value() (driver.Value, error) {
	return d.MarshalJSON()
}

func (d *Document) Scan(value interface{}) error {
	data, err := scanBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		d.Blocks = nil
		return nil
	}
	return d.UnmarshalJSON(data)
}

func (Document) GormDataType() string {
	return "jsonb"
}

// BlockError - ошибка проверки конкретного блока документа.
type BlockError struct {
	Index  int
	Block  Block
	Err    error
	detail string
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d: %v: %s", e.Index, e.Err, e.detail)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// Validate проверяет, что все типы блоков известны, позиции неотрицательны и уникальны,
// а непустые id не повторяются. Возвращает объединение всех найденных ошибок *BlockError.
func (d *Document) Validate(tc TypeChecker) error {
	var errs []error
	seen := make(map[int]struct{}, len(d.Blocks))
	ids := make(map[uuid.UUID]struct{}, len(d.Blocks))
	for i, b := range d.Blocks {
		if !tc.Known(b.Type) {
			errs = append(errs, &BlockError{Index: i, Block: b, Err: ErrUnknownBlockType, detail: fmt.Sprintf("%q", b.Type)})
		}
		if !b.ID.IsNil() {
			if _, ok := ids[b.ID]; ok {
				errs = append(errs, &BlockError{Index: i, Block: b, Err: ErrDuplicateBlockID, detail: b.ID.String()})
			}
			ids[b.ID] = struct{}{}
		}
		if b.Position < 0 {
			errs = append(errs, &BlockError{Index: i, Block: b, Err: ErrInvalidPosition, detail: fmt.Sprint(b.Position)})
			continue
		}
		if _, ok := seen[b.Position]; ok {
			errs = append(errs, &BlockError{Index: i, Block: b, Err: ErrDuplicatePosition, detail: fmt.Sprint(b.Position)})
		}
		seen[b.Position] = struct{}{}
	}
	return errors.Join(errs...)
}

// NormalizePositions выставляет позиции 0..n-1 по текущему порядку блоков.
func (d *Document) NormalizePositions() {
	for i := range d.Blocks {
		d.Blocks[i].Position = i
	}
}

// SortByPosition упорядочивает блоки по позиции, сохраняя порядок блоков с одинаковой позицией.
func (d *Document) SortByPosition() {
	slices.SortStableFunc(d.Blocks, func(a, b Block) int {
		return cmp.Compare(a.Position, b.Position)
	})
}

// Index возвращает индекс блока с указанным id или -1.
func (d *Document) Index(id uuid.UUID) int {
	return slices.IndexFunc(d.Blocks, func(b Block) bool { return b.ID == id })
}

// ReplaceRange заменяет непрерывный диапазон блоков targetIDs на newBlocks.
// Порядок остальных блоков не меняется, позиции нормализуются.
func (d *Document) ReplaceRange(targetIDs []uuid.UUID, newBlocks []Block) error {
	if len(targetIDs) == 0 {
		return ErrRangeNotFound
	}

	idx := make([]int, 0, len(targetIDs))
	for _, id := range targetIDs {
		i := d.Index(id)
		if i < 0 {
			return fmt.Errorf("%w: block %s", ErrRangeNotFound, id)
		}
		if slices.Contains(idx, i) {
			return fmt.Errorf("%w: block %s listed twice", ErrRangeNotFound, id)
		}
		idx = append(idx, i)
	}
	slices.Sort(idx)
	from, to := idx[0], idx[len(idx)-1]
	if to-from+1 != len(idx) {
		return fmt.Errorf("%w: range is not contiguous", ErrRangeNotFound)
	}

	res := make([]Block, 0, len(d.Blocks)-len(idx)+len(newBlocks))
	res = append(res, d.Blocks[:from]...)
	res = append(res, newBlocks...)
	res = append(res, d.Blocks[to+1:]...)
	d.Blocks = res
	d.NormalizePositions()
	return nil
}

// Clone возвращает глубокую копию документа.
func (d Document) Clone() Document {
	if d.Blocks == nil {
		return Document{}
	}
	res := Document{Blocks: make([]Block, len(d.Blocks))}
	for i, b := range d.Blocks {
		res.Blocks[i] = b.Clone()
	}
	return res
}

// Hash возвращает sha256 канонического JSON представления документа.
// Используется как ключ кэша отрисованного HTML.
func (d Document) Hash() string {
	data, err := d.MarshalJSON()
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
