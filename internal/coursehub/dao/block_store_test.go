package dao

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB создает тестовую БД SQLite в памяти со всеми моделями
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(AllModels()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, superuser bool) User {
	t.Helper()
	u := User{ID: GenUUID(), Email: GenUUID().String() + "@example.com", IsSuperuser: superuser, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestBlockStoreCRUD(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewBlockStore(db)
	user := createUser(t, db, false)

	doc, err := store.CreateDocument(ctx, OwnerRef{Kind: OwnerCourse, ID: GenUUID()}, user.ID)
	require.NoError(t, err)

	first := edtypes.Block{
		ID:       GenUUID(),
		Type:     edtypes.TypeParagraph,
		Position: 1,
		Props:    edtypes.Props{"textAlignment": "center"},
		Content:  edtypes.Content{edtypes.StyledText("hello", edtypes.Styles{Bold: true})},
	}
	second := edtypes.Block{
		ID:       GenUUID(),
		Type:     edtypes.TypeVideo,
		Position: 0,
		Props:    edtypes.Props{"videoUrl": "videos/a/b", "uploadState": "ready", "caption": ""},
	}
	require.NoError(t, store.CreateBlock(ctx, doc.ID, first, user.ID))
	require.NoError(t, store.CreateBlock(ctx, doc.ID, second, user.ID))

	blocks, err := store.FindBlocksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, second.ID, blocks[0].ID, "blocks are ordered by position")
	assert.True(t, edtypes.Equal(first, blocks[1]), "got %+v", blocks[1])

	pos := 5
	content := edtypes.Content{edtypes.Text("bye")}
	require.NoError(t, store.UpdateBlock(ctx, first.ID, BlockPatch{Position: &pos, Content: &content}, user.ID))

	row, err := store.GetBlock(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, row.Position)
	assert.Equal(t, "bye", row.Content[0].Text)
	assert.Equal(t, "center", row.Props.String("textAlignment"), "props are untouched by a partial update")
	assert.Equal(t, user.ID, row.UpdatedById.UUID)

	err = store.UpdateBlock(ctx, GenUUID(), BlockPatch{Position: &pos}, user.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, store.DeleteBlock(ctx, first.ID))
	require.NoError(t, store.DeleteBlock(ctx, first.ID), "deleting a missing block is not an error")

	_, err = store.GetBlock(ctx, first.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestBlockStoreRenderCache(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewBlockStore(db)

	doc, err := store.CreateDocument(ctx, OwnerRef{Kind: OwnerEvent, ID: GenUUID()}, uuid.Nil)
	require.NoError(t, err)

	require.NoError(t, store.SaveRenderCache(ctx, doc.ID, "hash", "<p>x</p>"))
	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", got.RenderedHTML)
	assert.Equal(t, "hash", got.RenderedHash)
	assert.True(t, got.RenderedAt.Valid)
	assert.WithinDuration(t, time.Now(), got.RenderedAt.Time, time.Minute)

	require.NoError(t, store.InvalidateRenderCache(ctx, doc.ID))
	got, err = store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RenderedHTML)
	assert.Empty(t, got.RenderedHash)
	assert.False(t, got.RenderedAt.Valid)
}

func TestBlockStoreMediaRefs(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewBlockStore(db)
	docID := GenUUID()

	for i, ref := range []string{"videos/a/1", "", "videos/b/2"} {
		require.NoError(t, store.CreateBlock(ctx, docID, edtypes.Block{
			ID:       GenUUID(),
			Type:     edtypes.TypeVideo,
			Position: i,
			Props:    edtypes.Props{"videoUrl": ref},
		}, uuid.Nil))
	}
	require.NoError(t, store.CreateBlock(ctx, docID, edtypes.Block{
		ID:    GenUUID(),
		Type:  edtypes.TypeCodeSnippet,
		Props: edtypes.Props{"videoUrl": "videos/not/a-video-block"},
	}, uuid.Nil))

	refs, err := store.MediaRefs(ctx, "videoUrl")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"videos/a/1": {}, "videos/b/2": {}}, refs)
}

func TestOwnerAuthorizer(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	auth := NewOwnerAuthorizer(db)

	owner := createUser(t, db, false)
	stranger := createUser(t, db, false)
	admin := createUser(t, db, true)
	inactive := createUser(t, db, false)
	require.NoError(t, db.Model(&User{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	course := Course{ID: GenUUID(), Title: "Go", CreatedById: owner.ID}
	event := Event{ID: GenUUID(), Title: "Meetup", HostId: owner.ID}
	tmpl := EmailTemplate{ID: GenUUID(), Name: "welcome", CreatedById: inactive.ID}
	require.NoError(t, db.Create(&course).Error)
	require.NoError(t, db.Create(&event).Error)
	require.NoError(t, db.Create(&tmpl).Error)

	tests := []struct {
		name  string
		user  uuid.UUID
		owner OwnerRef
		want  bool
	}{
		{"course owner", owner.ID, OwnerRef{OwnerCourse, course.ID}, true},
		{"event host", owner.ID, OwnerRef{OwnerEvent, event.ID}, true},
		{"stranger", stranger.ID, OwnerRef{OwnerCourse, course.ID}, false},
		{"superuser", admin.ID, OwnerRef{OwnerEvent, event.ID}, true},
		{"inactive owner", inactive.ID, OwnerRef{OwnerEmail, tmpl.ID}, false},
		{"unknown user", GenUUID(), OwnerRef{OwnerCourse, course.ID}, false},
		{"owner of another kind", owner.ID, OwnerRef{OwnerEmail, course.ID}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.IsOwnerOrAdmin(ctx, tt.user, tt.owner)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := auth.IsOwnerOrAdmin(ctx, owner.ID, OwnerRef{Kind: "invoice", ID: course.ID})
	assert.True(t, errors.Is(err, ErrUnknownOwnerKind))
}

func TestDeletionWatcher(t *testing.T) {
	w := NewDeletionWatcher()
	assert.True(t, w.StartDeletion("videos/a"))
	assert.False(t, w.StartDeletion("videos/a"), "second start of the same key is rejected")
	assert.True(t, w.IsDeleting("videos/a"))
	assert.Equal(t, []string{"videos/a"}, w.RunningDeletions())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.WaitAll(ctx, []string{"videos/a"}), context.DeadlineExceeded)

	w.FinishDeletion("videos/a")
	assert.NoError(t, w.WaitAll(context.Background(), []string{"videos/a"}))
	assert.True(t, w.StartDeletion("videos/a"))
}
