package dao

import (
	"context"
	"database/sql"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// BlockStore хранит блоки документов. Это единственный компонент, который пишет записи блоков.
type BlockStore struct {
	db *gorm.DB
}

func NewBlockStore(db *gorm.DB) *BlockStore {
	return &BlockStore{db: db}
}

func (s *BlockStore) CreateDocument(ctx context.Context, owner OwnerRef, userID uuid.UUID) (*Document, error) {
	doc := Document{
		ID:          GenUUID(),
		OwnerKind:   owner.Kind,
		OwnerId:     owner.ID,
		CreatedById: userID,
	}
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *BlockStore) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	var doc Document
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindBlocksByDocument возвращает блоки документа в порядке позиций.
func (s *BlockStore) FindBlocksByDocument(ctx context.Context, docID uuid.UUID) ([]edtypes.Block, error) {
	var rows []Block
	if err := s.db.WithContext(ctx).
		Where("document_id = ?", docID).
		Order("position, created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	res := make([]edtypes.Block, len(rows))
	for i := range rows {
		res[i] = rows[i].ToEdtypes()
	}
	return res, nil
}

func (s *BlockStore) GetBlock(ctx context.Context, id uuid.UUID) (*Block, error) {
	var b Block
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BlockStore) CreateBlock(ctx context.Context, docID uuid.UUID, b edtypes.Block, userID uuid.UUID) error {
	row := NewBlock(docID, b)
	row.UpdatedById = uuid.NullUUID{UUID: userID, Valid: !userID.IsNil()}
	return s.db.WithContext(ctx).Create(&row).Error
}

// UpdateBlock применяет частичное обновление. Если блока нет, возвращает gorm.ErrRecordNotFound.
func (s *BlockStore) UpdateBlock(ctx context.Context, id uuid.UUID, patch BlockPatch, userID uuid.UUID) error {
	if patch.Empty() {
		return nil
	}

	fields := map[string]any{
		"updated_at":    time.Now(),
		"updated_by_id": uuid.NullUUID{UUID: userID, Valid: !userID.IsNil()},
	}
	if patch.Type != nil {
		fields["type"] = *patch.Type
	}
	if patch.Position != nil {
		fields["position"] = *patch.Position
	}
	if patch.Props != nil {
		fields["props"] = patch.Props
	}
	if patch.Content != nil {
		fields["content"] = *patch.Content
	}

	res := s.db.WithContext(ctx).Model(&Block{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteBlock удаляет блок. Удаление отсутствующего блока не считается ошибкой.
func (s *BlockStore) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&Block{}).Error
}

func (s *BlockStore) InvalidateRenderCache(ctx context.Context, docID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&Document{}).Where("id = ?", docID).Updates(map[string]any{
		"rendered_html": "",
		"rendered_hash": "",
		"rendered_at":   sql.NullTime{},
		"updated_at":    time.Now(),
	}).Error
}

func (s *BlockStore) SaveRenderCache(ctx context.Context, docID uuid.UUID, hash string, html string) error {
	return s.db.WithContext(ctx).Model(&Document{}).Where("id = ?", docID).Updates(map[string]any{
		"rendered_html": html,
		"rendered_hash": hash,
		"rendered_at":   sql.NullTime{Time: time.Now(), Valid: true},
	}).Error
}

// MediaRefs возвращает множество ссылок на объекты хранилища из всех видео-блоков.
func (s *BlockStore) MediaRefs(ctx context.Context, prop string) (map[string]struct{}, error) {
	res := make(map[string]struct{})
	var batch []Block
	err := s.db.WithContext(ctx).
		Select("id", "props").
		Where("type = ?", edtypes.TypeVideo).
		FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
			for _, b := range batch {
				if ref := b.Props.String(prop); ref != "" {
					res[ref] = struct{}{}
				}
			}
			return nil
		}).Error
	return res, err
}
