package business

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/apierrors"
	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	"github.com/aisa-it/coursehub/internal/coursehub/editor"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	filestorage "github.com/aisa-it/coursehub/internal/coursehub/file-storage"
	"github.com/gofrs/uuid"
)

// UploadTicket - подписанная ссылка, по которой клиент загружает видео напрямую в хранилище.
type UploadTicket struct {
	WriteURL  string    `json:"write_url"`
	Ref       string    `json:"ref"`
	ExpiresAt time.Time `json:"expires_at"`
}

type mediaBlock struct {
	row  *dao.Block
	doc  *dao.Document
	prop string
}

func (m mediaBlock) ref() string {
	return m.row.Props.String(m.prop)
}

func (m mediaBlock) state() string {
	return m.row.Props.String(editor.PropUploadState)
}

// loadMediaBlock загружает медиа-блок и проверяет права на документ.
func (b *Business) loadMediaBlock(ctx context.Context, blockID uuid.UUID, user dao.User) (mediaBlock, error) {
	row, doc, err := b.loadBlock(ctx, blockID, user)
	if err != nil {
		return mediaBlock{}, err
	}
	prop, _, ok := b.reg.MediaRef(row.ToEdtypes())
	if !ok {
		return mediaBlock{}, apierrors.ErrNotVideoBlock
	}
	return mediaBlock{row: row, doc: doc, prop: prop}, nil
}

func (b *Business) loadBlock(ctx context.Context, blockID uuid.UUID, user dao.User) (*dao.Block, *dao.Document, error) {
	row, err := b.repo.GetBlock(ctx, blockID)
	if err != nil {
		return nil, nil, notFound(err, apierrors.ErrBlockNotFound)
	}
	doc, err := b.getEditableDocument(ctx, row.DocumentId, user)
	if err != nil {
		return nil, nil, err
	}
	return row, doc, nil
}

// setMedia записывает ссылку и состояние загрузки и сбрасывает кэш HTML документа.
func (b *Business) setMedia(ctx context.Context, m mediaBlock, ref string, state string, user dao.User) (edtypes.Block, error) {
	props := m.row.Props.Clone()
	props[m.prop] = ref
	props[editor.PropUploadState] = state

	if err := b.repo.UpdateBlock(ctx, m.row.ID, dao.BlockPatch{Props: props}, user.ID); err != nil {
		return edtypes.Block{}, notFound(err, apierrors.ErrBlockNotFound)
	}
	if err := b.repo.InvalidateRenderCache(ctx, m.doc.ID); err != nil {
		slog.Error("Invalidate render cache", "documentId", m.doc.ID, "err", err)
	}

	block := m.row.ToEdtypes()
	block.Props = props
	return block, nil
}

// RequestVideoUpload выдает ссылку на загрузку нового видео и переводит блок в состояние ожидания загрузки.
// Предыдущее видео блока ставится в очередь на удаление.
func (b *Business) RequestVideoUpload(ctx context.Context, blockID uuid.UUID, user dao.User) (*UploadTicket, error) {
	m, err := b.loadMediaBlock(ctx, blockID, user)
	if err != nil {
		return nil, err
	}

	dest, err := b.storage.GetUploadDestination(ctx, blockID)
	if err != nil {
		slog.Error("Get upload destination", "blockId", blockID, "err", err)
		return nil, apierrors.ErrUploadDestinationUnavailable
	}

	oldRef := m.ref()
	if _, err := b.setMedia(ctx, m, dest.Ref, editor.UploadStatePending, user); err != nil {
		return nil, err
	}
	b.enqueueDelete(oldRef)

	return &UploadTicket{
		WriteURL:  dest.WriteURL,
		Ref:       dest.Ref,
		ExpiresAt: dest.ExpiresAt,
	}, nil
}

// ConfirmVideoUpload переводит блок в состояние готовности, если загруженный объект есть в хранилище.
// Повторное подтверждение готового видео возвращает блок без изменений.
func (b *Business) ConfirmVideoUpload(ctx context.Context, blockID uuid.UUID, ref string, user dao.User) (*edtypes.Block, error) {
	m, err := b.loadMediaBlock(ctx, blockID, user)
	if err != nil {
		return nil, err
	}

	if ref == "" || m.ref() != ref {
		return nil, apierrors.ErrUploadNotConfirmed
	}
	if m.state() == editor.UploadStateReady {
		block := m.row.ToEdtypes()
		return &block, nil
	}

	exist, err := b.storage.Exist(ctx, ref)
	if err != nil {
		slog.Error("Check uploaded video", "ref", ref, "err", err)
		return nil, apierrors.ErrUploadDestinationUnavailable
	}
	if !exist {
		return nil, apierrors.ErrUploadNotConfirmed
	}

	if err := b.storage.SetMetadata(ctx, ref, filestorage.Metadata{
		DocumentId: m.doc.ID.String(),
		BlockId:    blockID.String(),
		UserId:     user.ID.String(),
	}); err != nil {
		slog.Warn("Set video metadata", "ref", ref, "err", err)
	}

	block, err := b.setMedia(ctx, m, ref, editor.UploadStateReady, user)
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// ClearVideo очищает видео блока, объект хранилища удаляется в фоне.
func (b *Business) ClearVideo(ctx context.Context, blockID uuid.UUID, user dao.User) (*edtypes.Block, error) {
	m, err := b.loadMediaBlock(ctx, blockID, user)
	if err != nil {
		return nil, err
	}

	oldRef := m.ref()
	block, err := b.setMedia(ctx, m, "", editor.UploadStateEmpty, user)
	if err != nil {
		return nil, err
	}
	b.enqueueDelete(oldRef)
	return &block, nil
}

// DeleteBlock удаляет блок любого типа. Видео блока удаляется из хранилища в фоне,
// позиции оставшихся блоков нумеруются заново.
func (b *Business) DeleteBlock(ctx context.Context, blockID uuid.UUID, user dao.User) error {
	row, doc, err := b.loadBlock(ctx, blockID, user)
	if err != nil {
		return err
	}

	if err := b.repo.DeleteBlock(ctx, blockID); err != nil {
		return err
	}
	if _, ref, ok := b.reg.MediaRef(row.ToEdtypes()); ok {
		b.enqueueDelete(ref)
	}

	rest, err := b.repo.FindBlocksByDocument(ctx, doc.ID)
	if err != nil {
		return err
	}
	for i, blk := range rest {
		if blk.Position == i {
			continue
		}
		pos := i
		if err := b.repo.UpdateBlock(ctx, blk.ID, dao.BlockPatch{Position: &pos}, user.ID); err != nil {
			return err
		}
	}

	if err := b.repo.InvalidateRenderCache(ctx, doc.ID); err != nil {
		slog.Error("Invalidate render cache", "documentId", doc.ID, "err", err)
	}
	return nil
}

// ResolvePlayback возвращает адрес воспроизведения готового видео.
// Ссылка должна принадлежать существующему блоку, иначе возвращается ErrMediaNotFound.
func (b *Business) ResolvePlayback(ctx context.Context, ref string) (string, error) {
	ref = strings.Trim(ref, "/")
	blockID, ok := filestorage.BlockIdFromKey(ref)
	if !ok {
		return "", apierrors.ErrMediaNotFound
	}

	row, err := b.repo.GetBlock(ctx, blockID)
	if err != nil {
		return "", notFound(err, apierrors.ErrMediaNotFound)
	}
	prop, current, isMedia := b.reg.MediaRef(row.ToEdtypes())
	if !isMedia || current != ref || row.Props.String(editor.PropUploadState) != editor.UploadStateReady {
		slog.Debug("Playback of unknown media", "ref", ref, "prop", prop)
		return "", apierrors.ErrMediaNotFound
	}

	return b.storage.ResolvePlaybackURL(ctx, ref)
}
