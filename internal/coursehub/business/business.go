// Пакет business содержит бизнес-логику блочных документов: сохранение отредактированного документа,
// жизненный цикл видео-блоков и кэш отрисованного HTML. Внешние зависимости подключаются через интерфейсы.
package business

import (
	"context"
	"errors"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/apierrors"
	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	"github.com/aisa-it/coursehub/internal/coursehub/editor"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	filestorage "github.com/aisa-it/coursehub/internal/coursehub/file-storage"
	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	defaultWorkers = 8
	writeAttempts  = 3
)

type BlockRepository interface {
	CreateDocument(ctx context.Context, owner dao.OwnerRef, userID uuid.UUID) (*dao.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*dao.Document, error)
	FindBlocksByDocument(ctx context.Context, docID uuid.UUID) ([]edtypes.Block, error)
	GetBlock(ctx context.Context, id uuid.UUID) (*dao.Block, error)
	CreateBlock(ctx context.Context, docID uuid.UUID, b edtypes.Block, userID uuid.UUID) error
	UpdateBlock(ctx context.Context, id uuid.UUID, patch dao.BlockPatch, userID uuid.UUID) error
	DeleteBlock(ctx context.Context, id uuid.UUID) error
	InvalidateRenderCache(ctx context.Context, docID uuid.UUID) error
	SaveRenderCache(ctx context.Context, docID uuid.UUID, hash string, html string) error
}

type MediaStorage interface {
	GetUploadDestination(ctx context.Context, blockID uuid.UUID) (filestorage.UploadDestination, error)
	ResolvePlaybackURL(ctx context.Context, ref string) (string, error)
	Exist(ctx context.Context, path string) (bool, error)
	SetMetadata(ctx context.Context, path string, meta filestorage.Metadata) error
}

type Authorizer interface {
	IsOwnerOrAdmin(ctx context.Context, userID uuid.UUID, owner dao.OwnerRef) (bool, error)
}

// MediaDeleteQueue принимает объекты на фоновое удаление. Результат удаления вызывающему не возвращается.
type MediaDeleteQueue interface {
	Enqueue(path string) bool
}

type Options struct {
	Registry      *editor.Registry
	RenderOptions editor.RenderOptions
	// Максимум параллельных записей блоков при сохранении документа
	Workers int
	// Пауза между повторами записи, по умолчанию 50ms * номер попытки
	RetryDelay time.Duration
}

type Business struct {
	repo    BlockRepository
	storage MediaStorage
	auth    Authorizer
	deleter MediaDeleteQueue

	reg        *editor.Registry
	renderOpts editor.RenderOptions
	workers    int
	retryDelay time.Duration

	reconcileDuration prometheus.Histogram
	reconcileFailures prometheus.Counter
}

func NewBL(repo BlockRepository, storage MediaStorage, auth Authorizer, deleter MediaDeleteQueue, opts Options) *Business {
	b := &Business{
		repo:       repo,
		storage:    storage,
		auth:       auth,
		deleter:    deleter,
		reg:        opts.Registry,
		renderOpts: opts.RenderOptions,
		workers:    opts.Workers,
		retryDelay: opts.RetryDelay,
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coursehub_reconcile_duration_seconds",
			Help:    "Duration of document reconciliation",
			Buckets: prometheus.DefBuckets,
		}),
		reconcileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursehub_reconcile_partial_total",
			Help: "Total count of document saves with failed block writes",
		}),
	}
	if b.reg == nil {
		b.reg = editor.Default
	}
	if b.workers <= 0 {
		b.workers = defaultWorkers
	}
	if b.retryDelay <= 0 {
		b.retryDelay = 50 * time.Millisecond
	}
	return b
}

func (b *Business) Register(reg prometheus.Registerer) error {
	if err := reg.Register(b.reconcileDuration); err != nil {
		return err
	}
	return reg.Register(b.reconcileFailures)
}

func (b *Business) Registry() *editor.Registry {
	return b.reg
}

// getEditableDocument загружает документ и проверяет права пользователя на его изменение.
func (b *Business) getEditableDocument(ctx context.Context, docID uuid.UUID, user dao.User) (*dao.Document, error) {
	doc, err := b.repo.GetDocument(ctx, docID)
	if err != nil {
		return nil, notFound(err, apierrors.ErrDocumentNotFound)
	}
	if err := b.checkOwner(ctx, user, doc.Owner()); err != nil {
		return nil, err
	}
	return doc, nil
}

func (b *Business) checkOwner(ctx context.Context, user dao.User, owner dao.OwnerRef) error {
	ok, err := b.auth.IsOwnerOrAdmin(ctx, user.ID, owner)
	if err != nil {
		return err
	}
	if !ok {
		return apierrors.ErrDocumentForbidden
	}
	return nil
}

// CreateDocument создает пустой документ для сущности, которой владеет пользователь.
func (b *Business) CreateDocument(ctx context.Context, owner dao.OwnerRef, user dao.User) (*dao.Document, error) {
	if !owner.Kind.Valid() {
		return nil, apierrors.ErrInvalidRequest.WithFormattedMessage("unknown owner kind " + string(owner.Kind))
	}
	if err := b.checkOwner(ctx, user, owner); err != nil {
		return nil, err
	}
	return b.repo.CreateDocument(ctx, owner, user.ID)
}

func notFound(err error, defined apierrors.DefinedError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defined
	}
	return err
}

func (b *Business) enqueueDelete(ref string) {
	if ref == "" || b.deleter == nil {
		return
	}
	b.deleter.Enqueue(ref)
}

// withRetry выполняет запись до writeAttempts раз. Отсутствие записи не повторяется.
func (b *Business) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		if err = fn(); err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if attempt == writeAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(b.retryDelay * time.Duration(attempt)):
		}
	}
	return err
}
