package editor

import (
	"errors"
	"testing"

	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryTypes(t *testing.T) {
	want := []edtypes.BlockType{
		edtypes.TypeParagraph, edtypes.TypeHeading, edtypes.TypeBulletListItem,
		edtypes.TypeNumberedListItem, edtypes.TypeCheckListItem, edtypes.TypeVideo,
		edtypes.TypeCodeSnippet, edtypes.TypeYouTube, edtypes.TypeFigma, edtypes.TypeCodePen,
		edtypes.TypeStackBlitz, edtypes.TypeReplit, edtypes.TypeCodeSandbox,
	}
	assert.ElementsMatch(t, want, Default.Types())
}

func TestRegistryLookup(t *testing.T) {
	_, err := Default.Lookup("spreadsheet")
	assert.True(t, errors.Is(err, ErrUnknownBlockType))

	k, err := Default.Lookup(edtypes.TypeVideo)
	require.NoError(t, err)
	mk, ok := k.(MediaKind)
	require.True(t, ok)
	assert.Equal(t, PropVideoURL, mk.MediaProp())
}

func TestRegistryDuplicate(t *testing.T) {
	r, err := NewRegistry(builtinKinds()...)
	require.NoError(t, err)
	err = r.Register(paragraphKind{base{typ: edtypes.TypeParagraph}})
	assert.True(t, errors.Is(err, ErrDuplicateKind))
}

func TestNewBlockDefaults(t *testing.T) {
	for _, typ := range Default.Types() {
		b, err := Default.NewBlock(typ)
		require.NoError(t, err)
		assert.False(t, b.ID.IsNil())

		norm, perrs, err := Default.NormalizeBlock(b)
		require.NoError(t, err)
		assert.Empty(t, perrs, typ)
		assert.True(t, norm.Props.Equal(b.Props), "defaults of %s are not normalized", typ)
	}
}

func TestNormalizeBlock(t *testing.T) {
	tests := []struct {
		name      string
		block     edtypes.Block
		wantProps edtypes.Props
		wantErrs  []string
	}{
		{
			name:      "unknown keys are dropped",
			block:     edtypes.Block{Type: edtypes.TypeParagraph, Props: edtypes.Props{"textAlignment": "right", "fontSize": 40}},
			wantProps: edtypes.Props{"textAlignment": "right"},
		},
		{
			name:      "bad alignment falls back",
			block:     edtypes.Block{Type: edtypes.TypeParagraph, Props: edtypes.Props{"textAlignment": "diagonal"}},
			wantProps: edtypes.Props{"textAlignment": "left"},
			wantErrs:  []string{"textAlignment"},
		},
		{
			name:      "heading level",
			block:     edtypes.Block{Type: edtypes.TypeHeading, Props: edtypes.Props{"level": 3.0}},
			wantProps: edtypes.Props{"textAlignment": "left", "level": 3},
		},
		{
			name:      "heading level out of range",
			block:     edtypes.Block{Type: edtypes.TypeHeading, Props: edtypes.Props{"level": 7}},
			wantProps: edtypes.Props{"textAlignment": "left", "level": 1},
			wantErrs:  []string{"level"},
		},
		{
			name:      "unknown language becomes plaintext",
			block:     edtypes.Block{Type: edtypes.TypeCodeSnippet, Props: edtypes.Props{"code": "x", "language": "brainfuck"}},
			wantProps: edtypes.Props{"code": "x", "language": "plaintext"},
		},
		{
			name:      "language alias",
			block:     edtypes.Block{Type: edtypes.TypeCodeSnippet, Props: edtypes.Props{"code": "x", "language": "TS"}},
			wantProps: edtypes.Props{"code": "x", "language": "typescript"},
		},
		{
			name:      "embed url is normalized",
			block:     edtypes.Block{Type: edtypes.TypeYouTube, Props: edtypes.Props{"youtubeUrl": "https://youtu.be/dQw4w9WgXcQ"}},
			wantProps: edtypes.Props{"youtubeUrl": "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		},
		{
			name:      "invalid embed url",
			block:     edtypes.Block{Type: edtypes.TypeReplit, Props: edtypes.Props{"replitUrl": "https://evil.example.com/@a/b"}},
			wantProps: edtypes.Props{"replitUrl": ""},
			wantErrs:  []string{"replitUrl"},
		},
		{
			name:      "video without ref has empty state",
			block:     edtypes.Block{Type: edtypes.TypeVideo, Props: edtypes.Props{"videoUrl": "", "uploadState": "ready"}},
			wantProps: edtypes.Props{"videoUrl": "", "uploadState": "", "caption": ""},
		},
		{
			name:      "video with foreign ref",
			block:     edtypes.Block{Type: edtypes.TypeVideo, Props: edtypes.Props{"videoUrl": "https://evil.example.com/v.mp4"}},
			wantProps: edtypes.Props{"videoUrl": "", "uploadState": "", "caption": ""},
			wantErrs:  []string{"videoUrl"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, perrs, err := Default.NormalizeBlock(tt.block)
			require.NoError(t, err)
			assert.True(t, got.Props.Equal(tt.wantProps), "got %v", got.Props)

			var keys []string
			for _, pe := range perrs {
				keys = append(keys, pe.Prop)
			}
			assert.Equal(t, tt.wantErrs, keys)
		})
	}
}

func TestNormalizeBlockInvalidEmbedError(t *testing.T) {
	_, perrs, err := Default.NormalizeBlock(edtypes.Block{
		Type:  edtypes.TypeFigma,
		Props: edtypes.Props{"figmaUrl": "https://www.figma.com/community/file/1"},
	})
	require.NoError(t, err)
	require.Len(t, perrs, 1)
	assert.True(t, errors.Is(perrs[0], embed.ErrInvalidEmbedURL))
}

func TestNormalizeBlockDropsContent(t *testing.T) {
	got, _, err := Default.NormalizeBlock(edtypes.Block{
		Type:    edtypes.TypeCodeSnippet,
		Content: edtypes.Content{edtypes.Text("stray")},
	})
	require.NoError(t, err)
	assert.Nil(t, got.Content)
}

func TestMediaRef(t *testing.T) {
	prop, ref, ok := Default.MediaRef(edtypes.Block{Type: edtypes.TypeVideo, Props: edtypes.Props{"videoUrl": "videos/a/b"}})
	assert.True(t, ok)
	assert.Equal(t, PropVideoURL, prop)
	assert.Equal(t, "videos/a/b", ref)

	_, _, ok = Default.MediaRef(edtypes.Block{Type: edtypes.TypeParagraph})
	assert.False(t, ok)
}
