package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/stream"
)

// leaf encodes a chunk with a 32-bit length, padded to align.
func leaf(tag string, payload []byte, align int) []byte {
	var b bytes.Buffer
	b.WriteString(tag)
	_ = binary.Write(&b, binary.BigEndian, uint32(len(payload)))
	b.Write(payload)
	for b.Len()%align != 0 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

// container encodes a FORM-like chunk; children must already be padded.
func container(tag, formType string, align int, children ...[]byte) []byte {
	payload := []byte(formType)
	for _, c := range children {
		payload = append(payload, c...)
	}
	return leaf(tag, payload, align)
}

func parseBytes(t *testing.T, data []byte, opts Options) ([]*Chunk, error) {
	t.Helper()
	r, err := stream.New(bytes.NewReader(data), stream.Options{})
	if err != nil {
		t.Fatalf("stream.New: %v", err)
	}
	return Parse(r, opts)
}

func TestTagValid(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"FORM", true},
		{"CAT ", true},
		{"(c) ", true},
		{" ABC", false},
		{"AB\x00C", false},
		{"AB\x7fC", false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := MakeTag(tt.tag).Valid(); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestParseIFF85(t *testing.T) {
	data := container("FORM", "ILBM", 2,
		leaf("NAME", []byte("odd"), 2),
		leaf("BMHD", make([]byte, 20), 2),
		leaf("XYZW", []byte{1}, 2),
	)

	roots, err := parseBytes(t, data, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}
	form := roots[0]
	if form.Kind != KindForm || form.FormType != MakeTag("ILBM") {
		t.Fatalf("root = %v %s, want form ILBM", form.Kind, form.FormType)
	}
	if len(form.Children) != 3 {
		t.Fatalf("got %d children, want 3", len(form.Children))
	}

	name := form.Children[0]
	if string(name.Data()) != "odd" {
		t.Errorf("NAME payload = %q", name.Data())
	}
	if name.Kind != KindData {
		t.Errorf("NAME kind = %v, want data", name.Kind)
	}
	if got := form.Children[2].Kind; got != KindOpaque {
		t.Errorf("unknown tag kind = %v, want opaque", got)
	}
	if form.Children[1].Offset != 12+8+4+8 {
		t.Errorf("BMHD offset = %d, want %d", form.Children[1].Offset, 12+8+4+8)
	}
}

// dialect encodes chunks for one container family.
type dialect struct {
	form  string
	align int
	wide  bool
}

func (d dialect) encode(tag string, payload []byte) []byte {
	b := []byte(tag)
	if d.wide {
		b = binary.BigEndian.AppendUint64(b, uint64(len(payload)))
	} else {
		b = binary.BigEndian.AppendUint32(b, uint32(len(payload)))
	}
	b = append(b, payload...)
	for len(b)%d.align != 0 {
		b = append(b, 0)
	}
	return b
}

// randomForm encodes a form of random leaves and nested forms. It returns
// the encoding and the number of chunks in it.
func (d dialect) randomForm(rng *rand.Rand, depth int) ([]byte, int) {
	payload := []byte("TEST")
	count := 1
	for range rng.Intn(6) + 1 {
		if depth < 3 && rng.Intn(4) == 0 {
			child, n := d.randomForm(rng, depth+1)
			payload = append(payload, child...)
			count += n
			continue
		}
		tag := []byte{'X', byte('A' + rng.Intn(26)), byte('A' + rng.Intn(26)), byte('0' + rng.Intn(10))}
		data := make([]byte, rng.Intn(41))
		for j := range data {
			data[j] = byte(rng.Intn(256))
		}
		payload = append(payload, d.encode(string(tag), data)...)
		count++
	}
	return d.encode(d.form, payload), count
}

func TestParseAlignment(t *testing.T) {
	dialects := []struct {
		name string
		d    dialect
	}{
		{"IFF85", dialect{form: "FORM", align: 2}},
		{"Maya", dialect{form: "FOR4", align: 4}},
		{"Maya64", dialect{form: "FOR8", align: 8, wide: true}},
	}
	for _, tt := range dialects {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(int64(tt.d.align)))
			for i := range 200 {
				data, want := tt.d.randomForm(rng, 0)
				roots, err := parseBytes(t, data, Options{})
				if err != nil {
					t.Fatalf("tree %d: Parse: %v", i, err)
				}
				if len(roots) != 1 || roots[0].NextOffset() != int64(len(data)) {
					t.Fatalf("tree %d: root does not span the %d-byte input", i, len(data))
				}

				got := 0
				Walk(roots, func(c *Chunk) bool {
					got++
					next := c.NextOffset()
					if next%int64(tt.d.align) != 0 {
						t.Errorf("tree %d: %s: next offset %d not aligned to %d", i, c.Tag, next, tt.d.align)
					}
					if next < c.Offset+int64(c.Size) {
						t.Errorf("tree %d: %s: next offset %d before payload end %d", i, c.Tag, next, c.Offset+int64(c.Size))
					}
					if c.Align != tt.d.align {
						t.Errorf("tree %d: %s: align = %d, want %d", i, c.Tag, c.Align, tt.d.align)
					}
					return true
				})
				if got != want {
					t.Errorf("tree %d: parsed %d chunks, want %d", i, got, want)
				}
			}
		})
	}
}

func TestParseWideLengths(t *testing.T) {
	var child bytes.Buffer
	child.WriteString("DATA")
	_ = binary.Write(&child, binary.BigEndian, uint64(3))
	child.Write([]byte{7, 8, 9})
	for child.Len()%8 != 0 {
		child.WriteByte(0)
	}

	var b bytes.Buffer
	b.WriteString("FOR8")
	_ = binary.Write(&b, binary.BigEndian, uint64(4+child.Len()))
	b.WriteString("TEST")
	b.Write(child.Bytes())

	roots, err := parseBytes(t, b.Bytes(), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	form := roots[0]
	if form.Align != 8 || len(form.Children) != 1 {
		t.Fatalf("form align=%d children=%d", form.Align, len(form.Children))
	}
	data := form.Children[0]
	if data.Size != 3 || !bytes.Equal(data.Data(), []byte{7, 8, 9}) {
		t.Errorf("DATA size=%d payload=%v", data.Size, data.Data())
	}
	if data.Offset != 12+4+12 {
		t.Errorf("DATA offset = %d", data.Offset)
	}
}

func TestParseInvalidTag(t *testing.T) {
	data := container("FORM", "ILBM", 2,
		leaf("BMHD", make([]byte, 20), 2),
		leaf("B\x01DY", []byte{1, 2}, 2),
	)
	_, err := parseBytes(t, data, Options{})
	if !errors.Is(err, fault.ErrStructural) {
		t.Fatalf("err = %v, want structural", err)
	}
}

func TestParseTruncatedBranch(t *testing.T) {
	good := leaf("BMHD", make([]byte, 20), 2)
	bad := []byte("BODY\x00\x00\x10\x00ab") // declares 4096 bytes
	data := container("FORM", "ILBM", 2, good, bad)

	roots, err := parseBytes(t, data, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	form := roots[0]
	if len(form.Children) != 1 || form.Children[0].Tag != MakeTag("BMHD") {
		t.Fatalf("children = %v, want only BMHD", form.Children)
	}
}

func TestParseTruncatedRoot(t *testing.T) {
	data := []byte("FORM\x00\x01\x00\x00ILBM")
	_, err := parseBytes(t, data, Options{})
	if !errors.Is(err, fault.ErrTruncated) {
		t.Fatalf("err = %v, want truncated", err)
	}
}

func TestParseNestingBomb(t *testing.T) {
	const levels = 1000
	data := leaf("BMHD", make([]byte, 20), 2)
	for range levels {
		data = container("FORM", "NEST", 2, data)
	}

	roots, err := parseBytes(t, data, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	deepest := 0
	Walk(roots, func(c *Chunk) bool {
		deepest = max(deepest, c.Depth)
		if c.Depth >= DefaultMaxDepth && len(c.Children) > 0 {
			t.Errorf("chunk at depth %d has children", c.Depth)
		}
		return true
	})
	if deepest != DefaultMaxDepth {
		t.Errorf("deepest chunk at %d, want %d", deepest, DefaultMaxDepth)
	}
}

func TestFramesWithProps(t *testing.T) {
	data := container("LIST", "ILBM", 2,
		container("PROP", "ILBM", 2, leaf("CMAP", []byte{1, 2, 3}, 2)),
		container("FORM", "ILBM", 2, leaf("BMHD", make([]byte, 20), 2), leaf("BODY", []byte{0}, 2)),
		container("FORM", "ILBM", 2,
			leaf("BMHD", make([]byte, 20), 2),
			leaf("CMAP", []byte{4, 5, 6}, 2),
			container("FORM", "ILBM", 2, leaf("BODY", nil, 2)),
		),
	)

	roots, err := parseBytes(t, data, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	frames := Frames(roots, MakeTag("ILBM"), MakeTag("PBM "))
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}

	cmap := MakeTag("CMAP")
	if got := frames[0].Find(cmap); got == nil || !bytes.Equal(got.Data(), []byte{1, 2, 3}) {
		t.Errorf("frame 0 CMAP from PROP = %v", got)
	}
	if got := frames[1].Find(cmap); got == nil || !bytes.Equal(got.Data(), []byte{4, 5, 6}) {
		t.Errorf("frame 1 own CMAP = %v", got)
	}
	if got := len(FindAll(roots, MakeTag("BMHD"))); got != 2 {
		t.Errorf("FindAll(BMHD) = %d, want 2", got)
	}
	if Find(roots, MakeTag("ZBUF")) != nil {
		t.Error("Find(ZBUF) found a chunk")
	}
}

func TestOpenUncached(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 16)
	data := leaf("BODY", payload, 2)
	r := bytes.NewReader(data)

	c := &Chunk{Tag: MakeTag("BODY"), Size: 16, Offset: 8, Align: 2}
	got, err := c.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("ReadAll = %x", got)
	}
	if n := c.Open(r).Size(); n != 16 {
		t.Errorf("Open size = %d", n)
	}
}
