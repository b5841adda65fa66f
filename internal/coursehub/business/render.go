package business

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/apierrors"
	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	"github.com/aisa-it/coursehub/internal/coursehub/editor"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/gofrs/uuid"
)

type DocumentView struct {
	ID        uuid.UUID       `json:"id"`
	OwnerKind dao.OwnerKind   `json:"owner_kind"`
	OwnerId   uuid.UUID       `json:"owner_id"`
	UpdatedAt time.Time       `json:"updated_at"`
	Blocks    []edtypes.Block `json:"blocks"`
	HTML      string          `json:"html"`
}

// getReadableDocument загружает документ для чтения. Страницы курсов и событий публичны,
// шаблоны писем доступны только владельцу.
func (b *Business) getReadableDocument(ctx context.Context, docID uuid.UUID, user dao.User) (*dao.Document, error) {
	doc, err := b.repo.GetDocument(ctx, docID)
	if err != nil {
		return nil, notFound(err, apierrors.ErrDocumentNotFound)
	}
	if doc.OwnerKind == dao.OwnerEmail {
		if err := b.checkOwner(ctx, user, doc.Owner()); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (b *Business) GetDocument(ctx context.Context, docID uuid.UUID, user dao.User) (*DocumentView, error) {
	doc, err := b.getReadableDocument(ctx, docID, user)
	if err != nil {
		return nil, err
	}
	blocks, err := b.repo.FindBlocksByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	return &DocumentView{
		ID:        doc.ID,
		OwnerKind: doc.OwnerKind,
		OwnerId:   doc.OwnerId,
		UpdatedAt: doc.UpdatedAt,
		Blocks:    blocks,
		HTML:      b.cachedHTML(ctx, doc, blocks),
	}, nil
}

// GetDocumentHTML возвращает HTML документа. Для писем HTML дополнительно минифицируется и не кэшируется.
func (b *Business) GetDocumentHTML(ctx context.Context, docID uuid.UUID, user dao.User, email bool) (string, error) {
	doc, err := b.getReadableDocument(ctx, docID, user)
	if err != nil {
		return "", err
	}
	blocks, err := b.repo.FindBlocksByDocument(ctx, docID)
	if err != nil {
		return "", err
	}

	if email {
		return b.reg.RenderEmail(edtypes.Document{Blocks: blocks}, b.renderOpts)
	}
	return b.cachedHTML(ctx, doc, blocks), nil
}

// cachedHTML отдает HTML из кэша документа, если он построен по тем же блокам и с теми же опциями.
func (b *Business) cachedHTML(ctx context.Context, doc *dao.Document, blocks []edtypes.Block) string {
	d := edtypes.Document{Blocks: blocks}
	hash := renderHash(d, b.renderOpts)
	if doc.RenderedAt.Valid && doc.RenderedHash == hash {
		return doc.RenderedHTML
	}

	html := b.reg.Render(d, b.renderOpts)
	if err := b.repo.SaveRenderCache(ctx, doc.ID, hash, html); err != nil {
		slog.Warn("Save render cache", "documentId", doc.ID, "err", err)
	}
	return html
}

// renderHash - ключ кэша HTML: хэш блоков вместе с опциями отрисовки.
func renderHash(d edtypes.Document, opts editor.RenderOptions) string {
	sum := sha256.Sum256([]byte(d.Hash() + "\n" + opts.Fingerprint()))
	return hex.EncodeToString(sum[:])
}
