package business

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/apierrors"
	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	"github.com/aisa-it/coursehub/internal/coursehub/editor"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	filestorage "github.com/aisa-it/coursehub/internal/coursehub/file-storage"
	"github.com/gofrs/uuid"
	"golang.org/x/sync/errgroup"
)

// BlockWarning - замечание к блоку, которое не мешает сохранению документа.
type BlockWarning struct {
	BlockID uuid.UUID `json:"block_id"`
	Prop    string    `json:"prop"`
	Message string    `json:"message"`
}

type ReconcileResult struct {
	Created    []edtypes.Block `json:"created"`
	Updated    []edtypes.Block `json:"updated"`
	DeletedIds []uuid.UUID     `json:"deleted_ids"`
	Warnings   []BlockWarning  `json:"warnings"`
}

type writeOp struct {
	block  edtypes.Block
	patch  dao.BlockPatch
	create bool
	// Ссылка на объект хранилища, которая освобождается после успешной записи
	releasedRef string
}

// SaveDocument сохраняет отредактированный документ, сравнивая его с блоками из базы.
func (b *Business) SaveDocument(ctx context.Context, docID uuid.UUID, blocks []edtypes.Block, user dao.User) (*ReconcileResult, error) {
	doc, err := b.getEditableDocument(ctx, docID, user)
	if err != nil {
		return nil, err
	}
	old, err := b.repo.FindBlocksByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	return b.reconcile(ctx, doc, old, blocks, user)
}

// ReconcileDocument приводит сохраненные блоки документа от состояния old к состоянию new.
//
// Порядок работы:
//  1. Проверка прав, при отказе ничего не записывается.
//  2. Проверка документа: неизвестный тип или повтор id отклоняет весь документ.
//  3. Нормализация свойств: недопустимое значение заменяется сохраненным и попадает в предупреждения.
//  4. Состояние загрузки видео вычисляется сервером.
//  5. Позиции нумеруются заново по всему документу.
//  6. Удаление, создание и обновление блоков с повторами. Освобожденные видео ставятся в очередь на удаление.
//  7. Сброс кэша HTML.
//
// Ошибки отдельных записей собираются в ErrPartialReconcile, результат при этом тоже возвращается.
func (b *Business) ReconcileDocument(ctx context.Context, docID uuid.UUID, old, new []edtypes.Block, user dao.User) (*ReconcileResult, error) {
	doc, err := b.getEditableDocument(ctx, docID, user)
	if err != nil {
		return nil, err
	}
	return b.reconcile(ctx, doc, old, new, user)
}

// reconcile выполняет сохранение для документа, права на который уже проверены.
func (b *Business) reconcile(ctx context.Context, document *dao.Document, old, next []edtypes.Block, user dao.User) (*ReconcileResult, error) {
	start := time.Now()
	defer func() { b.reconcileDuration.Observe(time.Since(start).Seconds()) }()
	docID := document.ID

	doc := edtypes.Document{Blocks: make([]edtypes.Block, len(next))}
	for i, nb := range next {
		doc.Blocks[i] = nb.Clone()
	}
	doc.SortByPosition()
	doc.NormalizePositions()
	if err := doc.Validate(b.reg); err != nil {
		return nil, invalidBlocks(err)
	}

	seen := make(map[uuid.UUID]struct{}, len(doc.Blocks))
	for i := range doc.Blocks {
		if doc.Blocks[i].ID.IsNil() {
			doc.Blocks[i].ID = dao.GenUUID()
		}
		seen[doc.Blocks[i].ID] = struct{}{}
	}

	oldByID := make(map[uuid.UUID]edtypes.Block, len(old))
	for _, ob := range old {
		oldByID[ob.ID] = ob
	}

	res := &ReconcileResult{}
	var ops []writeOp
	for _, nb := range doc.Blocks {
		prev, exists := oldByID[nb.ID]
		norm, warnings := b.normalize(nb, prev, exists)
		res.Warnings = append(res.Warnings, warnings...)

		if !exists {
			ops = append(ops, writeOp{block: norm, create: true})
			continue
		}

		patch := diff(prev, norm)
		if patch.Empty() {
			continue
		}
		ops = append(ops, writeOp{block: norm, patch: patch, releasedRef: b.releasedRef(prev, norm)})
	}

	var deletes []edtypes.Block
	for _, ob := range old {
		if _, ok := seen[ob.ID]; !ok {
			deletes = append(deletes, ob)
		}
	}

	var (
		mu     sync.Mutex
		causes []error
	)
	fail := func(id uuid.UUID, action string, err error) {
		mu.Lock()
		defer mu.Unlock()
		causes = append(causes, fmt.Errorf("%s block %s: %w", action, id, err))
	}

	eg := new(errgroup.Group)
	eg.SetLimit(b.workers)

	for _, ob := range deletes {
		eg.Go(func() error {
			if err := b.withRetry(ctx, func() error { return b.repo.DeleteBlock(ctx, ob.ID) }); err != nil {
				fail(ob.ID, "delete", err)
				return nil
			}
			if _, ref, ok := b.reg.MediaRef(ob); ok {
				b.enqueueDelete(ref)
			}
			mu.Lock()
			res.DeletedIds = append(res.DeletedIds, ob.ID)
			mu.Unlock()
			return nil
		})
	}
	eg.Wait()

	for _, op := range ops {
		eg.Go(func() error {
			var err error
			if op.create {
				err = b.withRetry(ctx, func() error { return b.repo.CreateBlock(ctx, docID, op.block, user.ID) })
			} else {
				err = b.withRetry(ctx, func() error { return b.repo.UpdateBlock(ctx, op.block.ID, op.patch, user.ID) })
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil && op.create:
				causes = append(causes, fmt.Errorf("create block %s: %w", op.block.ID, err))
			case err != nil:
				causes = append(causes, fmt.Errorf("update block %s: %w", op.block.ID, err))
			case op.create:
				res.Created = append(res.Created, op.block)
			default:
				res.Updated = append(res.Updated, op.block)
				b.enqueueDelete(op.releasedRef)
			}
			return nil
		})
	}
	eg.Wait()

	if err := b.repo.InvalidateRenderCache(ctx, docID); err != nil {
		causes = append(causes, fmt.Errorf("invalidate render cache: %w", err))
	}

	sortByPosition(res.Created)
	sortByPosition(res.Updated)
	slices.SortFunc(res.DeletedIds, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	if len(causes) > 0 {
		b.reconcileFailures.Inc()
		err := errors.Join(causes...)
		slog.Error("Reconcile document", "documentId", docID, "userId", user.ID, "failed", len(causes), "err", err)
		return res, fmt.Errorf("%w: %w", apierrors.ErrPartialReconcile, err)
	}
	return res, nil
}

// invalidBlocks переводит ошибку проверки документа в ошибку API по первому неверному блоку.
func invalidBlocks(err error) error {
	var be *edtypes.BlockError
	if !errors.As(err, &be) {
		return apierrors.ErrInvalidBlocks.WithFormattedMessage(err.Error())
	}
	if errors.Is(be, edtypes.ErrUnknownBlockType) {
		return apierrors.ErrUnknownBlockType.WithFormattedMessage(be.Block.Type)
	}
	return apierrors.ErrInvalidBlocks.WithFormattedMessage(be.Error())
}

// normalize нормализует блок через реестр и вычисляет серверные свойства медиа-блоков.
func (b *Business) normalize(nb edtypes.Block, prev edtypes.Block, exists bool) (edtypes.Block, []BlockWarning) {
	// Тип уже проверен, ошибка здесь невозможна
	norm, perrs, _ := b.reg.NormalizeBlock(nb)
	sameType := exists && prev.Type == nb.Type

	var warnings []BlockWarning
	for _, pe := range perrs {
		warnings = append(warnings, BlockWarning{BlockID: nb.ID, Prop: pe.Prop, Message: pe.Err.Error()})
		if sameType {
			if v, ok := prev.Props[pe.Prop]; ok {
				norm.Props[pe.Prop] = v
			}
		}
	}

	prop, ref, isMedia := b.reg.MediaRef(norm)
	if !isMedia {
		return norm, warnings
	}

	prevRef, prevState := "", editor.UploadStateEmpty
	if sameType {
		prevRef = prev.Props.String(prop)
		prevState = prev.Props.String(editor.PropUploadState)
	}

	switch {
	case ref == prevRef:
		norm.Props[editor.PropUploadState] = prevState
	case ref == "":
		norm.Props[editor.PropUploadState] = editor.UploadStateEmpty
	default:
		// Новая ссылка принимается только на объект, выданный для этого же блока
		if owner, ok := filestorage.BlockIdFromKey(ref); !ok || owner != nb.ID {
			warnings = append(warnings, BlockWarning{BlockID: nb.ID, Prop: prop, Message: "media reference belongs to another block"})
			norm.Props[prop] = prevRef
			norm.Props[editor.PropUploadState] = prevState
		} else {
			norm.Props[editor.PropUploadState] = editor.UploadStatePending
		}
	}
	if norm.Props.String(prop) == "" {
		norm.Props[editor.PropUploadState] = editor.UploadStateEmpty
	}
	return norm, warnings
}

// releasedRef возвращает ссылку, которая перестает использоваться после замены prev на next.
func (b *Business) releasedRef(prev, next edtypes.Block) string {
	_, prevRef, ok := b.reg.MediaRef(prev)
	if !ok || prevRef == "" {
		return ""
	}
	if _, nextRef, ok := b.reg.MediaRef(next); ok && nextRef == prevRef {
		return ""
	}
	return prevRef
}

func diff(prev, next edtypes.Block) dao.BlockPatch {
	var patch dao.BlockPatch
	if prev.Type != next.Type {
		t := next.Type
		patch.Type = &t
	}
	if prev.Position != next.Position {
		pos := next.Position
		patch.Position = &pos
	}
	if !prev.Props.Equal(next.Props) {
		patch.Props = next.Props
	}
	if !prev.Content.Equal(next.Content) {
		content := next.Content
		if content == nil {
			content = edtypes.Content{}
		}
		patch.Content = &content
	}
	return patch
}

func sortByPosition(blocks []edtypes.Block) {
	d := edtypes.Document{Blocks: blocks}
	d.SortByPosition()
}
