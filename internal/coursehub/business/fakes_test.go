package business

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	filestorage "github.com/aisa-it/coursehub/internal/coursehub/file-storage"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

var errUnavailable = errors.New("database unavailable")

type fakeRepo struct {
	mu     sync.Mutex
	docs   map[uuid.UUID]*dao.Document
	blocks map[uuid.UUID]*dao.Block

	// Количество оставшихся ошибок записи по id блока, -1 означает постоянную ошибку
	failWrites map[uuid.UUID]int
	writes     int
	cacheDrops int
	docReads   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:       make(map[uuid.UUID]*dao.Document),
		blocks:     make(map[uuid.UUID]*dao.Block),
		failWrites: make(map[uuid.UUID]int),
	}
}

func (r *fakeRepo) addDocument(owner dao.OwnerRef, blocks ...edtypes.Block) *dao.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc := &dao.Document{ID: dao.GenUUID(), OwnerKind: owner.Kind, OwnerId: owner.ID}
	r.docs[doc.ID] = doc
	for _, b := range blocks {
		row := dao.NewBlock(doc.ID, b)
		r.blocks[b.ID] = &row
	}
	return doc
}

func (r *fakeRepo) fail(id uuid.UUID) error {
	n, ok := r.failWrites[id]
	if !ok || n == 0 {
		return nil
	}
	if n > 0 {
		r.failWrites[id] = n - 1
	}
	return errUnavailable
}

func (r *fakeRepo) CreateDocument(ctx context.Context, owner dao.OwnerRef, userID uuid.UUID) (*dao.Document, error) {
	doc := r.addDocument(owner)
	doc.CreatedById = userID
	return doc, nil
}

func (r *fakeRepo) GetDocument(ctx context.Context, id uuid.UUID) (*dao.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docReads++
	doc, ok := r.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	res := *doc
	return &res, nil
}

func (r *fakeRepo) FindBlocksByDocument(ctx context.Context, docID uuid.UUID) ([]edtypes.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []edtypes.Block
	for _, b := range r.blocks {
		if b.DocumentId == docID {
			res = append(res, b.ToEdtypes().Clone())
		}
	}
	slices.SortFunc(res, func(a, b edtypes.Block) int { return cmp.Compare(a.Position, b.Position) })
	return res, nil
}

func (r *fakeRepo) GetBlock(ctx context.Context, id uuid.UUID) (*dao.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blocks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	res := *b
	res.Props = b.Props.Clone()
	return &res, nil
}

func (r *fakeRepo) CreateBlock(ctx context.Context, docID uuid.UUID, b edtypes.Block, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if err := r.fail(b.ID); err != nil {
		return err
	}
	row := dao.NewBlock(docID, b.Clone())
	r.blocks[b.ID] = &row
	return nil
}

func (r *fakeRepo) UpdateBlock(ctx context.Context, id uuid.UUID, patch dao.BlockPatch, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if err := r.fail(id); err != nil {
		return err
	}
	b, ok := r.blocks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if patch.Type != nil {
		b.Type = *patch.Type
	}
	if patch.Position != nil {
		b.Position = *patch.Position
	}
	if patch.Props != nil {
		b.Props = patch.Props.Clone()
	}
	if patch.Content != nil {
		b.Content = *patch.Content
	}
	b.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRepo) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if err := r.fail(id); err != nil {
		return err
	}
	delete(r.blocks, id)
	return nil
}

func (r *fakeRepo) InvalidateRenderCache(ctx context.Context, docID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cacheDrops++
	if doc, ok := r.docs[docID]; ok {
		doc.RenderedHTML, doc.RenderedHash = "", ""
		doc.RenderedAt.Valid = false
	}
	return nil
}

func (r *fakeRepo) SaveRenderCache(ctx context.Context, docID uuid.UUID, hash string, html string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc, ok := r.docs[docID]; ok {
		doc.RenderedHTML, doc.RenderedHash = html, hash
		doc.RenderedAt.Time, doc.RenderedAt.Valid = time.Now(), true
	}
	return nil
}

func (r *fakeRepo) block(id uuid.UUID) *dao.Block {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blocks[id]
}

type fakeStorage struct {
	objects map[string]bool
	down    bool
	meta    map[string]filestorage.Metadata
}

func (s *fakeStorage) GetUploadDestination(ctx context.Context, blockID uuid.UUID) (filestorage.UploadDestination, error) {
	if s.down {
		return filestorage.UploadDestination{}, errors.New("connection refused")
	}
	key := filestorage.VideoKey(blockID)
	return filestorage.UploadDestination{
		WriteURL:  "https://storage.local/" + key + "?signature=1",
		Ref:       key,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (s *fakeStorage) ResolvePlaybackURL(ctx context.Context, ref string) (string, error) {
	return "https://cdn.local/" + ref, nil
}

func (s *fakeStorage) Exist(ctx context.Context, path string) (bool, error) {
	if s.down {
		return false, errors.New("connection refused")
	}
	return s.objects[path], nil
}

func (s *fakeStorage) SetMetadata(ctx context.Context, path string, meta filestorage.Metadata) error {
	if s.meta == nil {
		s.meta = make(map[string]filestorage.Metadata)
	}
	s.meta[path] = meta
	return nil
}

type fakeAuth struct {
	owners map[uuid.UUID]uuid.UUID
	calls  atomic.Int32
}

func (a *fakeAuth) IsOwnerOrAdmin(ctx context.Context, userID uuid.UUID, owner dao.OwnerRef) (bool, error) {
	a.calls.Add(1)
	return a.owners[owner.ID] == userID, nil
}

type fakeQueue struct {
	mu    sync.Mutex
	paths []string
}

func (q *fakeQueue) Enqueue(path string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paths = append(q.paths, path)
	return true
}

func (q *fakeQueue) enqueued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	res := append([]string(nil), q.paths...)
	slices.Sort(res)
	return res
}
