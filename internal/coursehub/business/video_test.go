package business

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aisa-it/coursehub/internal/coursehub/apierrors"
	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	"github.com/aisa-it/coursehub/internal/coursehub/editor"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoLifecycle(t *testing.T) {
	ctx := context.Background()
	clip := video(0, editor.UploadStateEmpty)
	env := newTestEnv(t, dao.OwnerCourse, clip)

	ticket, err := env.bl.RequestVideoUpload(ctx, clip.ID, env.owner)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ticket.Ref, "videos/"+clip.ID.String()+"/"))
	assert.Contains(t, ticket.WriteURL, ticket.Ref)

	stored := env.repo.block(clip.ID)
	assert.Equal(t, ticket.Ref, stored.Props.String(editor.PropVideoURL))
	assert.Equal(t, editor.UploadStatePending, stored.Props.String(editor.PropUploadState))
	assert.Empty(t, env.queue.enqueued(), "empty block has nothing to release")

	_, err = env.bl.ResolvePlayback(ctx, ticket.Ref)
	assert.True(t, errors.Is(err, apierrors.ErrMediaNotFound), "pending video is not playable")

	_, err = env.bl.ConfirmVideoUpload(ctx, clip.ID, ticket.Ref, env.owner)
	assert.True(t, errors.Is(err, apierrors.ErrUploadNotConfirmed), "object is not in storage yet")

	env.storage.objects[ticket.Ref] = true
	_, err = env.bl.ConfirmVideoUpload(ctx, clip.ID, "videos/"+clip.ID.String()+"/other", env.owner)
	assert.True(t, errors.Is(err, apierrors.ErrUploadNotConfirmed), "ref must match the issued one")

	block, err := env.bl.ConfirmVideoUpload(ctx, clip.ID, ticket.Ref, env.owner)
	require.NoError(t, err)
	assert.Equal(t, editor.UploadStateReady, block.Props.String(editor.PropUploadState))
	assert.Equal(t, clip.ID.String(), env.storage.meta[ticket.Ref].BlockId)

	again, err := env.bl.ConfirmVideoUpload(ctx, clip.ID, ticket.Ref, env.owner)
	require.NoError(t, err)
	assert.Equal(t, editor.UploadStateReady, again.Props.String(editor.PropUploadState))

	playback, err := env.bl.ResolvePlayback(ctx, "/"+ticket.Ref+"/")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.local/"+ticket.Ref, playback)

	second, err := env.bl.RequestVideoUpload(ctx, clip.ID, env.owner)
	require.NoError(t, err)
	assert.NotEqual(t, ticket.Ref, second.Ref)
	assert.Equal(t, []string{ticket.Ref}, env.queue.enqueued(), "replaced video is scheduled for deletion")

	cleared, err := env.bl.ClearVideo(ctx, clip.ID, env.owner)
	require.NoError(t, err)
	assert.Equal(t, "", cleared.Props.String(editor.PropVideoURL))
	assert.Equal(t, editor.UploadStateEmpty, cleared.Props.String(editor.PropUploadState))
	assert.ElementsMatch(t, []string{ticket.Ref, second.Ref}, env.queue.enqueued())
	assert.Equal(t, 4, env.repo.cacheDrops)
}

func TestRequestVideoUploadStorageDown(t *testing.T) {
	ctx := context.Background()
	clip := video(0, editor.UploadStateReady)
	env := newTestEnv(t, dao.OwnerCourse, clip)
	env.storage.down = true

	_, err := env.bl.RequestVideoUpload(ctx, clip.ID, env.owner)
	assert.True(t, errors.Is(err, apierrors.ErrUploadDestinationUnavailable))

	stored := env.repo.block(clip.ID)
	assert.Equal(t, clip.Props.String(editor.PropVideoURL), stored.Props.String(editor.PropVideoURL))
	assert.Equal(t, editor.UploadStateReady, stored.Props.String(editor.PropUploadState))
	assert.Empty(t, env.queue.enqueued())
}

func TestVideoOperationsChecks(t *testing.T) {
	ctx := context.Background()
	clip := video(0, editor.UploadStateReady)
	text := paragraph(1, "text")
	env := newTestEnv(t, dao.OwnerCourse, clip, text)

	_, err := env.bl.RequestVideoUpload(ctx, clip.ID, env.stranger)
	assert.True(t, errors.Is(err, apierrors.ErrDocumentForbidden))

	_, err = env.bl.RequestVideoUpload(ctx, text.ID, env.owner)
	assert.True(t, errors.Is(err, apierrors.ErrNotVideoBlock))

	_, err = env.bl.ClearVideo(ctx, dao.GenUUID(), env.owner)
	assert.True(t, errors.Is(err, apierrors.ErrBlockNotFound))

	for _, ref := range []string{"", "videos/", "unknown/x", "videos/" + dao.GenUUID().String() + "/x"} {
		_, err = env.bl.ResolvePlayback(ctx, ref)
		assert.True(t, errors.Is(err, apierrors.ErrMediaNotFound), ref)
	}
}

func TestDeleteBlock(t *testing.T) {
	ctx := context.Background()
	first := paragraph(0, "first")
	clip := video(1, editor.UploadStateReady)
	last := paragraph(2, "last")
	env := newTestEnv(t, dao.OwnerCourse, first, clip, last)

	require.NoError(t, env.bl.DeleteBlock(ctx, clip.ID, env.owner))
	assert.Nil(t, env.repo.block(clip.ID))
	assert.Equal(t, []string{clip.Props.String(editor.PropVideoURL)}, env.queue.enqueued())

	blocks, err := env.repo.FindBlocksByDocument(ctx, env.doc.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, []int{0, 1}, []int{blocks[0].Position, blocks[1].Position})

	err = env.bl.DeleteBlock(ctx, first.ID, env.stranger)
	assert.True(t, errors.Is(err, apierrors.ErrDocumentForbidden))
	assert.NotNil(t, env.repo.block(first.ID))
}

func TestGetDocumentHTML(t *testing.T) {
	ctx := context.Background()
	heading := edtypes.Block{
		ID:       dao.GenUUID(),
		Type:     edtypes.TypeHeading,
		Position: 0,
		Props:    edtypes.Props{editor.PropLevel: 2, editor.PropTextAlignment: "left"},
		Content:  edtypes.Content{edtypes.Text("Урок")},
	}
	env := newTestEnv(t, dao.OwnerCourse, heading, paragraph(1, "текст"))

	html, err := env.bl.GetDocumentHTML(ctx, env.doc.ID, env.stranger, false)
	require.NoError(t, err)
	assert.Equal(t, "<h2>Урок</h2><p>текст</p>", html)

	env.repo.docs[env.doc.ID].RenderedHTML = "<p>cached</p>"
	html, err = env.bl.GetDocumentHTML(ctx, env.doc.ID, env.stranger, false)
	require.NoError(t, err)
	assert.Equal(t, "<p>cached</p>", html, "unchanged blocks are served from cache")

	view, err := env.bl.GetDocument(ctx, env.doc.ID, env.stranger)
	require.NoError(t, err)
	assert.Len(t, view.Blocks, 2)
	assert.Equal(t, "<p>cached</p>", view.HTML)

	email, err := env.bl.GetDocumentHTML(ctx, env.doc.ID, env.stranger, true)
	require.NoError(t, err)
	assert.Equal(t, "<h2>Урок</h2><p>текст</p>", email)
}

func TestRenderCacheDependsOnOptions(t *testing.T) {
	ctx := context.Background()
	v := video(0, editor.UploadStateReady)
	ref := v.Props.String(editor.PropVideoURL)
	env := newTestEnv(t, dao.OwnerCourse, v)

	html, err := env.bl.GetDocumentHTML(ctx, env.doc.ID, env.stranger, false)
	require.NoError(t, err)
	assert.Contains(t, html, `src="/api/media/`+ref+`/"`)

	env.repo.docs[env.doc.ID].RenderedHTML = "<p>cached</p>"
	withHost := NewBL(env.repo, env.storage, env.auth, env.queue, Options{
		RenderOptions: editor.RenderOptions{MediaURL: editor.MediaProxyURL("https://school.example.com")},
	})
	html, err = withHost.GetDocumentHTML(ctx, env.doc.ID, env.stranger, false)
	require.NoError(t, err)
	assert.Contains(t, html, `src="https://school.example.com/api/media/`+ref+`/"`, "changed options bypass the cache")

	env.repo.docs[env.doc.ID].RenderedHTML = "<p>cached</p>"
	html, err = withHost.GetDocumentHTML(ctx, env.doc.ID, env.stranger, false)
	require.NoError(t, err)
	assert.Equal(t, "<p>cached</p>", html)
}

func TestEmailDocumentIsPrivate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, dao.OwnerEmail, paragraph(0, "Здравствуйте"))

	_, err := env.bl.GetDocumentHTML(ctx, env.doc.ID, env.stranger, true)
	assert.True(t, errors.Is(err, apierrors.ErrDocumentForbidden))

	html, err := env.bl.GetDocumentHTML(ctx, env.doc.ID, env.owner, true)
	require.NoError(t, err)
	assert.Equal(t, "<p>Здравствуйте</p>", html)

	_, err = env.bl.GetDocument(ctx, dao.GenUUID(), env.owner)
	assert.True(t, errors.Is(err, apierrors.ErrDocumentNotFound))
}
