package edtypes_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/gofrs/uuid"
)

type knownTypes map[edtypes.BlockType]bool

func (k knownTypes) Known(t edtypes.BlockType) bool { return k[t] }

var testTypes = knownTypes{
	edtypes.TypeParagraph: true,
	edtypes.TypeHeading:   true,
	edtypes.TypeVideo:     true,
}

func para(text string) edtypes.Block {
	return edtypes.Block{
		ID:      uuid.Must(uuid.NewV4()),
		Type:    edtypes.TypeParagraph,
		Props:   edtypes.Props{"textAlignment": "left"},
		Content: edtypes.Content{edtypes.Text(text)},
	}
}

func TestBlock_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantNil bool
		wantErr bool
	}{
		{
			name:    "new block with empty id",
			json:    `{"id":"","type":"paragraph","position":0,"props":{}}`,
			wantNil: true,
		},
		{
			name:    "new block without id",
			json:    `{"type":"paragraph","position":0}`,
			wantNil: true,
		},
		{
			name: "existing block",
			json: `{"id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","type":"paragraph","position":3,"props":{"textAlignment":"center"}}`,
		},
		{
			name:    "broken id",
			json:    `{"id":"not-a-uuid","type":"paragraph"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b edtypes.Block
			err := json.Unmarshal([]byte(tt.json), &b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if b.ID.IsNil() != tt.wantNil {
				t.Errorf("ID.IsNil() = %v, want %v", b.ID.IsNil(), tt.wantNil)
			}
			if b.Props == nil {
				t.Error("Props must never be nil after decoding")
			}
		})
	}
}

func TestDocument_RoundTrip(t *testing.T) {
	doc := edtypes.Document{Blocks: []edtypes.Block{
		para("first"),
		{
			ID:       uuid.Must(uuid.NewV4()),
			Type:     edtypes.TypeHeading,
			Position: 1,
			Props:    edtypes.Props{"level": 2, "textAlignment": "center"},
			Content: edtypes.Content{
				edtypes.StyledText("bold", edtypes.Styles{Bold: true, TextColor: "red"}),
				edtypes.Link("https://example.com", edtypes.Text("link")),
			},
		},
		{
			Type:     edtypes.TypeVideo,
			Position: 2,
			Props:    edtypes.Props{"videoUrl": "", "uploadState": ""},
		},
	}}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	var decoded edtypes.Document
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	if len(decoded.Blocks) != len(doc.Blocks) {
		t.Fatalf("got %d blocks, want %d", len(decoded.Blocks), len(doc.Blocks))
	}
	for i := range doc.Blocks {
		if decoded.Blocks[i].ID != doc.Blocks[i].ID {
			t.Errorf("block %d: id %s, want %s", i, decoded.Blocks[i].ID, doc.Blocks[i].ID)
		}
		if !edtypes.Equal(decoded.Blocks[i], doc.Blocks[i]) {
			t.Errorf("block %d differs after round trip: %+v", i, decoded.Blocks[i])
		}
	}
}

func TestDocument_ValueScan(t *testing.T) {
	doc := edtypes.Document{Blocks: []edtypes.Block{para("a"), para("b")}}
	doc.NormalizePositions()

	v, err := doc.Value()
	if err != nil {
		t.Fatal(err)
	}

	var scanned edtypes.Document
	if err := scanned.Scan(v); err != nil {
		t.Fatal(err)
	}
	if scanned.Hash() != doc.Hash() {
		t.Error("document changed after Value/Scan")
	}
}

func TestDocument_Validate(t *testing.T) {
	twinID := uuid.Must(uuid.NewV4())
	tests := []struct {
		name    string
		blocks  []edtypes.Block
		wantErr []error
	}{
		{
			name:   "valid",
			blocks: []edtypes.Block{{Type: edtypes.TypeParagraph, Position: 0}, {Type: edtypes.TypeVideo, Position: 1}},
		},
		{
			name:    "unknown type",
			blocks:  []edtypes.Block{{Type: "spreadsheet", Position: 0}},
			wantErr: []error{edtypes.ErrUnknownBlockType},
		},
		{
			name:    "negative position",
			blocks:  []edtypes.Block{{Type: edtypes.TypeParagraph, Position: -1}},
			wantErr: []error{edtypes.ErrInvalidPosition},
		},
		{
			name: "duplicate position and unknown type",
			blocks: []edtypes.Block{
				{Type: edtypes.TypeParagraph, Position: 1},
				{Type: "table", Position: 1},
			},
			wantErr: []error{edtypes.ErrDuplicatePosition, edtypes.ErrUnknownBlockType},
		},
		{
			name: "duplicate id",
			blocks: []edtypes.Block{
				{ID: twinID, Type: edtypes.TypeParagraph, Position: 0},
				{Type: edtypes.TypeParagraph, Position: 1},
				{ID: twinID, Type: edtypes.TypeVideo, Position: 2},
			},
			wantErr: []error{edtypes.ErrDuplicateBlockID},
		},
		{
			name: "empty ids are not duplicates",
			blocks: []edtypes.Block{
				{Type: edtypes.TypeParagraph, Position: 0},
				{Type: edtypes.TypeParagraph, Position: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := edtypes.Document{Blocks: tt.blocks}
			err := doc.Validate(testTypes)
			if len(tt.wantErr) == 0 && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("error %v does not wrap %v", err, want)
				}
			}
			if err != nil {
				var be *edtypes.BlockError
				if !errors.As(err, &be) {
					t.Errorf("error %v carries no block", err)
				}
			}
		})
	}
}

func TestDocument_NormalizePositions(t *testing.T) {
	doc := edtypes.Document{Blocks: []edtypes.Block{
		{Type: edtypes.TypeParagraph, Position: 10},
		{Type: edtypes.TypeParagraph, Position: 4},
		{Type: edtypes.TypeParagraph, Position: 4},
	}}

	doc.NormalizePositions()
	first := doc.Hash()
	doc.NormalizePositions()

	if doc.Hash() != first {
		t.Error("NormalizePositions is not idempotent")
	}
	for i, b := range doc.Blocks {
		if b.Position != i {
			t.Errorf("block %d has position %d", i, b.Position)
		}
	}
}

func TestDocument_SortByPositionStable(t *testing.T) {
	a, b, c := para("a"), para("b"), para("c")
	a.Position, b.Position, c.Position = 2, 1, 1
	doc := edtypes.Document{Blocks: []edtypes.Block{a, b, c}}

	doc.SortByPosition()

	got := []uuid.UUID{doc.Blocks[0].ID, doc.Blocks[1].ID, doc.Blocks[2].ID}
	want := []uuid.UUID{b.ID, c.ID, a.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestDocument_ReplaceRange(t *testing.T) {
	a, b, c, d := para("a"), para("b"), para("c"), para("d")
	x, y := para("x"), para("y")

	tests := []struct {
		name    string
		targets []uuid.UUID
		want    []uuid.UUID
		wantErr bool
	}{
		{
			name:    "middle range",
			targets: []uuid.UUID{b.ID, c.ID},
			want:    []uuid.UUID{a.ID, x.ID, y.ID, d.ID},
		},
		{
			name:    "targets in any order",
			targets: []uuid.UUID{c.ID, b.ID},
			want:    []uuid.UUID{a.ID, x.ID, y.ID, d.ID},
		},
		{
			name:    "single head block",
			targets: []uuid.UUID{a.ID},
			want:    []uuid.UUID{x.ID, y.ID, b.ID, c.ID, d.ID},
		},
		{
			name:    "not contiguous",
			targets: []uuid.UUID{a.ID, c.ID},
			wantErr: true,
		},
		{
			name:    "unknown target",
			targets: []uuid.UUID{uuid.Must(uuid.NewV4())},
			wantErr: true,
		},
		{
			name:    "empty targets",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := edtypes.Document{Blocks: []edtypes.Block{a, b, c, d}}
			doc.NormalizePositions()
			before := doc.Hash()

			err := doc.ReplaceRange(tt.targets, []edtypes.Block{x, y})
			if tt.wantErr {
				if !errors.Is(err, edtypes.ErrRangeNotFound) {
					t.Fatalf("error = %v, want ErrRangeNotFound", err)
				}
				if doc.Hash() != before {
					t.Error("document modified on failed replace")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(doc.Blocks) != len(tt.want) {
				t.Fatalf("got %d blocks, want %d", len(doc.Blocks), len(tt.want))
			}
			for i, id := range tt.want {
				if doc.Blocks[i].ID != id {
					t.Errorf("block %d = %s, want %s", i, doc.Blocks[i].ID, id)
				}
				if doc.Blocks[i].Position != i {
					t.Errorf("block %d has position %d", i, doc.Blocks[i].Position)
				}
			}
		})
	}
}

func TestProps_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b edtypes.Props
		want bool
	}{
		{"int and float", edtypes.Props{"level": 2}, edtypes.Props{"level": 2.0}, true},
		{"nil and empty", nil, edtypes.Props{}, true},
		{"different values", edtypes.Props{"code": "a"}, edtypes.Props{"code": "b"}, false},
		{"extra key", edtypes.Props{"code": "a"}, edtypes.Props{"code": "a", "language": "go"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProps_Int(t *testing.T) {
	p := edtypes.Props{"a": 3, "b": 2.0, "c": 2.5, "d": "3"}
	if v, ok := p.Int("a"); !ok || v != 3 {
		t.Errorf("Int(a) = %d, %v", v, ok)
	}
	if v, ok := p.Int("b"); !ok || v != 2 {
		t.Errorf("Int(b) = %d, %v", v, ok)
	}
	if _, ok := p.Int("c"); ok {
		t.Error("fractional value accepted")
	}
	if _, ok := p.Int("d"); ok {
		t.Error("string value accepted")
	}
}

func TestContent_Scan(t *testing.T) {
	var c edtypes.Content
	if err := c.Scan([]byte(`[{"type":"text","text":"hi","styles":{"bold":true}},{"type":"mention","text":"@me"}]`)); err != nil {
		t.Fatal(err)
	}
	if len(c) != 2 {
		t.Fatalf("got %d spans", len(c))
	}
	if !c[0].Styles.Bold {
		t.Error("bold style lost")
	}
	if c[1].Type != "mention" {
		t.Error("unknown span type must be kept")
	}
}
