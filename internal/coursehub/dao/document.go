package dao

import (
	"database/sql"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/gofrs/uuid"
)

type OwnerKind string

const (
	OwnerCourse OwnerKind = "course"
	OwnerEvent  OwnerKind = "event"
	OwnerEmail  OwnerKind = "email"
)

func (k OwnerKind) Valid() bool {
	switch k {
	case OwnerCourse, OwnerEvent, OwnerEmail:
		return true
	}
	return false
}

// OwnerRef указывает на сущность, которой принадлежит документ.
type OwnerRef struct {
	Kind OwnerKind
	ID   uuid.UUID
}

// Document - блочный документ, принадлежащий курсу, событию или шаблону письма.
type Document struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	OwnerKind OwnerKind `json:"owner_kind" gorm:"type:text;index:document_owner_idx"`
	OwnerId   uuid.UUID `json:"owner_id" gorm:"type:uuid;index:document_owner_idx"`

	CreatedAt   time.Time `json:"created_at"`
	CreatedById uuid.UUID `json:"created_by" gorm:"type:uuid"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Кэш отрисованного HTML, RenderedHash - хэш блоков и опций отрисовки, по которым он построен
	RenderedHTML string       `json:"-"`
	RenderedHash string       `json:"-"`
	RenderedAt   sql.NullTime `json:"-"`

	Blocks []Block `json:"-" gorm:"foreignKey:DocumentId"`
}

func (Document) TableName() string { return "documents" }

func (d *Document) Owner() OwnerRef {
	return OwnerRef{Kind: d.OwnerKind, ID: d.OwnerId}
}

type Block struct {
	ID         uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	DocumentId uuid.UUID `json:"document_id" gorm:"type:uuid;index"`

	Type     edtypes.BlockType `json:"type" gorm:"type:text"`
	Position int               `json:"position"`
	Props    edtypes.Props     `json:"props"`
	Content  edtypes.Content   `json:"content"`

	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	UpdatedById uuid.NullUUID `json:"updated_by" gorm:"type:uuid"`
}

func (Block) TableName() string { return "blocks" }

func (b *Block) ToEdtypes() edtypes.Block {
	props := b.Props
	if props == nil {
		props = edtypes.Props{}
	}
	return edtypes.Block{
		ID:       b.ID,
		Type:     b.Type,
		Position: b.Position,
		Props:    props,
		Content:  b.Content,
	}
}

func NewBlock(docID uuid.UUID, b edtypes.Block) Block {
	return Block{
		ID:         b.ID,
		DocumentId: docID,
		Type:       b.Type,
		Position:   b.Position,
		Props:      b.Props,
		Content:    b.Content,
	}
}

// BlockPatch - частичное обновление блока, nil поля не изменяются.
type BlockPatch struct {
	Type     *edtypes.BlockType
	Position *int
	Props    edtypes.Props
	Content  *edtypes.Content
}

func (p BlockPatch) Empty() bool {
	return p.Type == nil && p.Position == nil && p.Props == nil && p.Content == nil
}
