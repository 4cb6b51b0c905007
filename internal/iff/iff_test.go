package iff

import (
	"bytes"
	"encoding/binary"
	"errors"
	stdcolor "image/color"
	"testing"

	"github.com/gogpu/imgdec/internal/chunk"
	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/image"
	"github.com/gogpu/imgdec/internal/stream"
)

// ck encodes a chunk with a 32-bit length padded to align.
func ck(tag string, payload []byte, align int) []byte {
	b := make([]byte, 8, 8+len(payload)+align)
	copy(b, tag)
	binary.BigEndian.PutUint32(b[4:], uint32(len(payload)))
	b = append(b, payload...)
	for len(b)%align != 0 {
		b = append(b, 0)
	}
	return b
}

func form(formType string, children ...[]byte) []byte {
	body := []byte(formType)
	for _, c := range children {
		body = append(body, c...)
	}
	return ck("FORM", body, 2)
}

func bmhd(w, h, planes int, masking Masking, comp Compression, transparent int) []byte {
	b := make([]byte, 20)
	binary.BigEndian.PutUint16(b[0:], uint16(w))
	binary.BigEndian.PutUint16(b[2:], uint16(h))
	b[8] = byte(planes)
	b[9] = byte(masking)
	b[10] = byte(comp)
	binary.BigEndian.PutUint16(b[12:], uint16(transparent))
	b[14], b[15] = 10, 11
	return ck("BMHD", b, 2)
}

func cmap(entries ...[3]byte) []byte {
	var b []byte
	for _, e := range entries {
		b = append(b, e[:]...)
	}
	return ck("CMAP", b, 2)
}

func camg(mode uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, mode)
	return ck("CAMG", b, 2)
}

// planar interleaves per-pixel values into uncompressed bitplane rows.
// Extra planes beyond planes are written as all-ones, standing in for a
// mask plane.
func planar(rows [][]uint64, width, planes, extra int) []byte {
	rowBytes := (width + 15) / 16 * 2
	var out []byte
	for _, row := range rows {
		for p := range planes {
			plane := make([]byte, rowBytes)
			for x, v := range row {
				if v>>p&1 != 0 {
					plane[x/8] |= 0x80 >> (x % 8)
				}
			}
			out = append(out, plane...)
		}
		for range extra {
			out = append(out, bytes.Repeat([]byte{0xff}, rowBytes)...)
		}
	}
	return out
}

func decode(t *testing.T, data []byte, opts Options) (*image.ImageBuf, Info, error) {
	t.Helper()
	src, err := stream.New(bytes.NewReader(data), stream.Options{})
	if err != nil {
		t.Fatal(err)
	}
	tree, err := chunk.Parse(src, chunk.Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return Decode(src, tree, opts)
}

func mustDecode(t *testing.T, data []byte) (*image.ImageBuf, Info) {
	t.Helper()
	buf, info, err := decode(t, data, Options{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return buf, info
}

func rgbAt(buf *image.ImageBuf, x, y int) [3]byte {
	p := buf.PixelBytes(x, y)
	return [3]byte{p[0], p[1], p[2]}
}

func TestParseBitmapHeader(t *testing.T) {
	payload := bmhd(320, 200, 5, MaskTransparentColor, CompressByteRun1, 3)[8:]
	h, err := ParseBitmapHeader(payload)
	if err != nil {
		t.Fatal(err)
	}
	if h.Width != 320 || h.Height != 200 || h.Planes != 5 || h.TransparentIndex != 3 {
		t.Errorf("header = %+v", h)
	}
	if h.Masking != MaskTransparentColor || h.Compression != CompressByteRun1 {
		t.Errorf("masking/compression = %d/%d", h.Masking, h.Compression)
	}
	if h.RowBytes() != 40 {
		t.Errorf("RowBytes = %d, want 40", h.RowBytes())
	}
	if (BitmapHeader{Width: 17}).RowBytes() != 4 {
		t.Error("RowBytes does not round to words")
	}

	if _, err := ParseBitmapHeader(payload[:10]); !errors.Is(err, fault.ErrTruncated) {
		t.Errorf("short BMHD: %v", err)
	}
	zero := bmhd(0, 10, 1, 0, 0, 0)[8:]
	if _, err := ParseBitmapHeader(zero); !errors.Is(err, fault.ErrStructural) {
		t.Errorf("zero width: %v", err)
	}
}

func TestSelectFormat(t *testing.T) {
	pal16 := make(Palette, 16)
	pal32 := make(Palette, 32)
	tests := []struct {
		name    string
		planes  int
		pal     Palette
		mode    uint32
		form    chunk.Tag
		perLine bool
		comp    Compression
		want    Selection
		err     error
	}{
		{"gray", 4, nil, 0, FormILBM, false, 0, Selection{image.FormatGray8, PathGray}, nil},
		{"indexed", 4, pal16, 0, FormILBM, false, 0, Selection{image.FormatIndexed8, PathIndexed}, nil},
		{"ham6", 6, pal16, ModeHAM, FormILBM, false, 0, Selection{image.FormatRGB8, PathHAM}, nil},
		{"ham4 is indexed", 4, pal16, ModeHAM, FormILBM, false, 0, Selection{image.FormatIndexed8, PathIndexed}, nil},
		{"ham no palette", 6, nil, ModeHAM, FormILBM, false, 0, Selection{}, fault.ErrUnsupported},
		{"half-brite", 6, pal32, ModeEHB, FormILBM, false, 0, Selection{image.FormatIndexed8, PathHalfBrite}, nil},
		{"line palette", 4, pal16, 0, FormILBM, true, 0, Selection{image.FormatRGB8, PathLinePalette}, nil},
		{"24 planes", 24, nil, 0, FormILBM, false, 0, Selection{image.FormatRGB8, PathDeep}, nil},
		{"25 planes", 25, nil, 0, FormILBM, false, 0, Selection{image.FormatRGB8, PathDeep}, nil},
		{"32 planes", 32, nil, 0, FormILBM, false, 0, Selection{image.FormatRGBA8, PathDeep}, nil},
		{"48 planes", 48, nil, 0, FormILBM, false, 0, Selection{image.FormatRGB16, PathDeep}, nil},
		{"64 planes", 64, nil, 0, FormILBM, false, 0, Selection{image.FormatRGBA16, PathDeep}, nil},
		{"12 planes", 12, nil, 0, FormILBM, false, 0, Selection{}, fault.ErrUnsupported},
		{"pbm indexed", 8, pal16, 0, FormPBM, false, 0, Selection{image.FormatIndexed8, PathChunky}, nil},
		{"pbm gray", 8, nil, 0, FormPBM, false, 0, Selection{image.FormatGray8, PathChunky}, nil},
		{"rgbn", 13, nil, 0, FormRGBN, false, CompressRGBN, Selection{image.FormatRGB8, PathAmigaRGB}, nil},
		{"rgb8 raw", 25, nil, 0, FormRGB8, false, 0, Selection{}, fault.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := BitmapHeader{Width: 8, Height: 8, Planes: tt.planes, Compression: tt.comp}
			got, err := SelectFormat(h, tt.pal, tt.mode, tt.form, tt.perLine)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v/%v, want %v/%v", got.Format, got.Path, tt.want.Format, tt.want.Path)
			}
		})
	}
}

// 2x2, two planes, four colours: the smallest useful ILBM.
func ilbm2x2(comp Compression, body []byte) []byte {
	return form("ILBM",
		bmhd(2, 2, 2, MaskNone, comp, 0),
		cmap([3]byte{0, 0, 0}, [3]byte{255, 0, 0}, [3]byte{0, 255, 0}, [3]byte{0, 0, 255}),
		ck("BODY", body, 2),
	)
}

func TestDecodeIndexed(t *testing.T) {
	raw := planar([][]uint64{{0, 1}, {2, 3}}, 2, 2, 0)
	// Each plane row as a two-byte literal, with a -128 one-byte run in the
	// first row.
	packed := []byte{
		0x80, 0x40, 0x00, 0x00, // plane 0: run of 1, literal of 1
		0x01, 0x00, 0x00, // plane 1
		0x01, 0x40, 0x00,
		0x01, 0xc0, 0x00,
	}

	for _, tt := range []struct {
		name string
		comp Compression
		body []byte
	}{
		{"raw", CompressNone, raw},
		{"byterun1", CompressByteRun1, packed},
	} {
		t.Run(tt.name, func(t *testing.T) {
			buf, info := mustDecode(t, ilbm2x2(tt.comp, tt.body))
			if info.Format != image.FormatIndexed8 || info.Width != 2 || info.Height != 2 {
				t.Fatalf("info = %+v", info)
			}
			want := []byte{0, 1, 2, 3}
			got := []byte{buf.RowBytes(0)[0], buf.RowBytes(0)[1], buf.RowBytes(1)[0], buf.RowBytes(1)[1]}
			if !bytes.Equal(got, want) {
				t.Errorf("indices = %v, want %v", got, want)
			}
			if len(buf.Palette()) != 4 {
				t.Fatalf("palette has %d entries", len(buf.Palette()))
			}
			if buf.Palette()[1] != (stdcolor.NRGBA{255, 0, 0, 255}) {
				t.Errorf("palette[1] = %v", buf.Palette()[1])
			}
			if info.Header.AspectX != 10 || info.Header.AspectY != 11 {
				t.Errorf("aspect = %d:%d", info.Header.AspectX, info.Header.AspectY)
			}
		})
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	raw := planar([][]uint64{{0, 1}, {2, 3}}, 2, 2, 0)
	_, _, err := decode(t, ilbm2x2(CompressNone, raw[:6]), Options{})
	if !errors.Is(err, fault.ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
	_, _, err = decode(t, ilbm2x2(CompressByteRun1, []byte{0x01, 0x40}), Options{})
	if !errors.Is(err, fault.ErrTruncated) {
		t.Fatalf("packed: err = %v, want ErrTruncated", err)
	}
}

func TestDecodeGrayAndMaskPlane(t *testing.T) {
	rows := [][]uint64{{0, 1, 1, 0}}
	data := form("ILBM",
		bmhd(4, 1, 1, MaskHasMask, CompressNone, 0),
		ck("BODY", planar(rows, 4, 1, 1), 2),
	)
	buf, info := mustDecode(t, data)
	if info.Format != image.FormatGray8 {
		t.Fatalf("format = %v", info.Format)
	}
	if got := buf.RowBytes(0); !bytes.Equal(got, []byte{0, 255, 255, 0}) {
		t.Errorf("row = %v", got)
	}
}

func TestDecodeTransparentColor(t *testing.T) {
	data := form("ILBM",
		bmhd(2, 1, 1, MaskTransparentColor, CompressNone, 1),
		cmap([3]byte{10, 10, 10}, [3]byte{20, 30, 40}),
		ck("BODY", planar([][]uint64{{0, 1}}, 2, 1, 0), 2),
	)
	buf, _ := mustDecode(t, data)
	if c := buf.Palette()[1].(stdcolor.NRGBA); c.A != 0 || c.R != 20 {
		t.Errorf("transparent entry = %v", c)
	}
	if c := buf.Palette()[0].(stdcolor.NRGBA); c.A != 255 {
		t.Errorf("opaque entry = %v", c)
	}
}

func TestDecodeHAM(t *testing.T) {
	pal := make([][3]byte, 16)
	pal[1] = [3]byte{10, 20, 30}
	rows := [][]uint64{
		{1, 0b01_1111, 0b10_0000, 0b11_1000},
		{0b01_1111, 0, 0, 0}, // state resets to entry 0 at row start
	}
	data := form("ILBM",
		bmhd(4, 2, 6, MaskNone, CompressNone, 0),
		camg(ModeHAM),
		cmap(pal...),
		ck("BODY", planar(rows, 4, 6, 0), 2),
	)

	first, info := mustDecode(t, data)
	if info.Path != PathHAM || info.Format != image.FormatRGB8 {
		t.Fatalf("info = %+v", info)
	}
	want := [][3]byte{{10, 20, 30}, {255, 20, 30}, {255, 20, 0}, {255, 136, 0}}
	for x, w := range want {
		if got := rgbAt(first, x, 0); got != w {
			t.Errorf("pixel %d = %v, want %v", x, got, w)
		}
	}
	if got := rgbAt(first, 0, 1); got != [3]byte{255, 0, 0} {
		t.Errorf("row 1 start = %v, want red from black", got)
	}

	second, _ := mustDecode(t, data)
	if !bytes.Equal(first.Data(), second.Data()) {
		t.Error("HAM decode is not deterministic")
	}
}

func TestDecodeHalfBrite(t *testing.T) {
	pal := make([][3]byte, 32)
	pal[1] = [3]byte{200, 100, 50}
	data := form("ILBM",
		bmhd(2, 1, 6, MaskNone, CompressNone, 0),
		camg(ModeEHB),
		cmap(pal...),
		ck("BODY", planar([][]uint64{{1, 33}}, 2, 6, 0), 2),
	)
	buf, info := mustDecode(t, data)
	if info.Path != PathHalfBrite {
		t.Fatalf("path = %v", info.Path)
	}
	p := buf.Palette()
	if len(p) != 64 {
		t.Fatalf("palette has %d entries", len(p))
	}
	if p[33] != (stdcolor.NRGBA{100, 50, 25, 255}) {
		t.Errorf("half-brite entry = %v", p[33])
	}
	if buf.RowBytes(0)[1] != 33 {
		t.Errorf("index = %d", buf.RowBytes(0)[1])
	}
}

func TestDecodeLinePalette(t *testing.T) {
	ctbl := make([]byte, 2*32)
	binary.BigEndian.PutUint16(ctbl[2:], 0x0f00)    // line 0, entry 1: red
	binary.BigEndian.PutUint16(ctbl[32+2:], 0x00f0) // line 1, entry 1: green
	data := form("ILBM",
		bmhd(1, 2, 1, MaskNone, CompressNone, 0),
		ck("CTBL", ctbl, 2),
		ck("BODY", planar([][]uint64{{1}, {1}}, 1, 1, 0), 2),
	)
	buf, info := mustDecode(t, data)
	if info.Path != PathLinePalette {
		t.Fatalf("path = %v", info.Path)
	}
	if got := rgbAt(buf, 0, 0); got != [3]byte{255, 0, 0} {
		t.Errorf("row 0 = %v", got)
	}
	if got := rgbAt(buf, 0, 1); got != [3]byte{0, 255, 0} {
		t.Errorf("row 1 = %v", got)
	}
}

func TestDecodeDeep(t *testing.T) {
	t.Run("24", func(t *testing.T) {
		v := uint64(0x30) | uint64(0x20)<<8 | uint64(0x10)<<16
		data := form("ILBM",
			bmhd(1, 1, 24, MaskNone, CompressNone, 0),
			ck("BODY", planar([][]uint64{{v}}, 1, 24, 0), 2),
		)
		buf, _ := mustDecode(t, data)
		if got := rgbAt(buf, 0, 0); got != [3]byte{0x30, 0x20, 0x10} {
			t.Errorf("pixel = %x", got)
		}
	})
	t.Run("64", func(t *testing.T) {
		v := uint64(0x1234) | uint64(0x5678)<<16 | uint64(0x9abc)<<32 | uint64(0xdef0)<<48
		data := form("ILBM",
			bmhd(1, 1, 64, MaskNone, CompressNone, 0),
			ck("BODY", planar([][]uint64{{v}}, 1, 64, 0), 2),
		)
		buf, info := mustDecode(t, data)
		if info.Format != image.FormatRGBA16 {
			t.Fatalf("format = %v", info.Format)
		}
		want := []byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}
		if got := buf.PixelBytes(0, 0); !bytes.Equal(got, want) {
			t.Errorf("pixel = %x, want %x", got, want)
		}
	})
}

func TestDeinterleave(t *testing.T) {
	values := []uint64{0, 1, 2, 3, 4, 5, 6, 7, 255, 128, 77, 0, 1, 2, 3, 200, 9}
	row := planar([][]uint64{values}, len(values), 8, 0)
	idx := make([]uint64, 32)
	deinterleave(idx, row, 4, 8)
	for x, v := range values {
		if idx[x] != v {
			t.Errorf("pixel %d = %d, want %d", x, idx[x], v)
		}
	}
}

func TestDecodePBM(t *testing.T) {
	data := form("PBM ",
		bmhd(3, 1, 8, MaskNone, CompressNone, 0),
		cmap([3]byte{1, 2, 3}),
		ck("BODY", []byte{0, 5, 9, 0}, 2),
	)
	buf, info := mustDecode(t, data)
	if info.Format != image.FormatIndexed8 || info.Path != PathChunky {
		t.Fatalf("info = %+v", info)
	}
	if got := buf.RowBytes(0); !bytes.Equal(got, []byte{0, 5, 9}) {
		t.Errorf("row = %v", got)
	}
	if len(buf.Palette()) != 256 {
		t.Errorf("palette has %d entries", len(buf.Palette()))
	}
}

func TestDecodeACBM(t *testing.T) {
	// 16x2, one plane, stored as a contiguous plane.
	abit := []byte{0xff, 0x00, 0x0f, 0xf0}
	data := form("ACBM",
		bmhd(16, 2, 1, MaskNone, CompressNone, 0),
		ck("ABIT", abit, 2),
	)
	buf, _ := mustDecode(t, data)
	if got := buf.RowBytes(0)[0:9]; !bytes.Equal(got, []byte{255, 255, 255, 255, 255, 255, 255, 255, 0}) {
		t.Errorf("row 0 = %v", got)
	}
	if got := buf.RowBytes(1)[3:5]; !bytes.Equal(got, []byte{0, 255}) {
		t.Errorf("row 1 = %v", got)
	}
}

func TestDecodeVDAT(t *testing.T) {
	// One command: repeat the next data word twice.
	vdat := []byte{0x00, 0x03, 0x02, 0xff, 0x00}
	data := form("ILBM",
		bmhd(16, 2, 1, MaskNone, CompressVDAT, 0),
		ck("BODY", ck("VDAT", vdat, 2), 2),
	)
	buf, _ := mustDecode(t, data)
	for y := range 2 {
		row := buf.RowBytes(y)
		if row[7] != 255 || row[8] != 0 {
			t.Errorf("row %d = %v", y, row)
		}
	}
}

func TestDecodeAmigaRGB(t *testing.T) {
	t.Run("rgbn", func(t *testing.T) {
		// One run word covering both pixels: R=0xf G=0x8 B=0x1, count 2.
		data := form("RGBN",
			bmhd(2, 1, 13, MaskNone, CompressRGBN, 0),
			ck("BODY", []byte{0xf8, 0x12}, 2),
		)
		buf, _ := mustDecode(t, data)
		for x := range 2 {
			if got := rgbAt(buf, x, 0); got != [3]byte{255, 136, 17} {
				t.Errorf("pixel %d = %v", x, got)
			}
		}
	})
	t.Run("rgb8", func(t *testing.T) {
		data := form("RGB8",
			bmhd(2, 1, 25, MaskNone, CompressRGBN, 0),
			ck("BODY", []byte{1, 2, 3, 1, 4, 5, 6, 1}, 2),
		)
		buf, _ := mustDecode(t, data)
		if got := rgbAt(buf, 1, 0); got != [3]byte{4, 5, 6} {
			t.Errorf("pixel 1 = %v", got)
		}
	})
}

func TestFramesAndProps(t *testing.T) {
	prop := ck("PROP", append([]byte("ILBM"),
		append(bmhd(2, 1, 1, MaskNone, CompressNone, 0),
			cmap([3]byte{0, 0, 0}, [3]byte{9, 9, 9})...)...), 2)
	f0 := form("ILBM", ck("BODY", planar([][]uint64{{0, 1}}, 2, 1, 0), 2))
	f1 := form("ILBM", ck("BODY", planar([][]uint64{{1, 0}}, 2, 1, 0), 2))
	list := ck("LIST", append(append(append([]byte("ILBM"), prop...), f0...), f1...), 2)

	buf, info, err := decode(t, list, Options{Frame: 1})
	if err != nil {
		t.Fatal(err)
	}
	if info.Frames != 2 || info.Frame != 1 {
		t.Errorf("frames = %d/%d", info.Frame, info.Frames)
	}
	if got := buf.RowBytes(0); !bytes.Equal(got, []byte{1, 0}) {
		t.Errorf("frame 1 = %v", got)
	}

	if _, _, err := decode(t, list, Options{Frame: 2}); !errors.Is(err, fault.ErrStructural) {
		t.Errorf("frame out of range: %v", err)
	}
}

func TestDecodeText(t *testing.T) {
	data := form("ILBM",
		bmhd(2, 1, 1, MaskNone, CompressNone, 0),
		ck("NAME", []byte("Caf\xe9\x00"), 2),
		ck("AUTH", []byte("Me"), 2),
		ck("ANNO", []byte("one"), 2),
		ck("ANNO", []byte("two"), 2),
		ck("DPI ", []byte{0, 72, 0, 144}, 2),
		ck("BODY", planar([][]uint64{{0, 1}}, 2, 1, 0), 2),
	)
	_, info := mustDecode(t, data)
	if info.Text["Name"] != "Café" {
		t.Errorf("Name = %q", info.Text["Name"])
	}
	if info.Text["Author"] != "Me" || info.Text["Annotation"] != "one\ntwo" {
		t.Errorf("text = %v", info.Text)
	}
	if info.ResolutionX < 2834 || info.ResolutionX > 2835 || info.ResolutionY < 5669 || info.ResolutionY > 5670 {
		t.Errorf("resolution = %f x %f", info.ResolutionX, info.ResolutionY)
	}
}

func TestDecodeLimits(t *testing.T) {
	data := form("ILBM",
		bmhd(60000, 60000, 8, MaskNone, CompressNone, 0),
		ck("BODY", nil, 2),
	)
	_, _, err := decode(t, data, Options{Limits: image.Limits{MaxBytes: 1 << 20}})
	if !errors.Is(err, fault.ErrResourceLimit) {
		t.Fatalf("err = %v, want ErrResourceLimit", err)
	}

	src, _ := stream.New(bytes.NewReader(data), stream.Options{})
	tree, _ := chunk.Parse(src, chunk.Options{})
	info, err := Config(src, tree, Options{})
	if err != nil || info.Width != 60000 {
		t.Errorf("Config = %+v, %v", info, err)
	}
}

// cimg builds a FOR4 CIMG with one RGBA tile.
func cimg(w, h int, flags uint32, compression uint32, tile []byte) []byte {
	tb := make([]byte, 24)
	binary.BigEndian.PutUint32(tb[0:], uint32(w))
	binary.BigEndian.PutUint32(tb[4:], uint32(h))
	binary.BigEndian.PutUint16(tb[8:], 1)
	binary.BigEndian.PutUint16(tb[10:], 1)
	binary.BigEndian.PutUint32(tb[12:], flags)
	binary.BigEndian.PutUint16(tb[18:], 1)
	binary.BigEndian.PutUint32(tb[20:], compression)
	tbmp := ck("FOR4", append([]byte("TBMP"), ck("RGBA", tile, 4)...), 4)
	body := append([]byte("CIMG"), ck("TBHD", tb, 4)...)
	body = append(body, tbmp...)
	return ck("FOR4", body, 4)
}

func TestDecodeCIMG(t *testing.T) {
	rect := []byte{0, 0, 0, 0, 0, 1, 0, 1} // (0,0)-(1,1)
	// Stored bottom row first, pixels as ABGR.
	pixels := []byte{
		4, 3, 2, 1, 8, 7, 6, 5, // bottom row
		12, 11, 10, 9, 16, 15, 14, 13, // top row
	}
	want := [][]byte{
		{9, 10, 11, 12, 13, 14, 15, 16},
		{1, 2, 3, 4, 5, 6, 7, 8},
	}

	t.Run("raw", func(t *testing.T) {
		buf, info := mustDecode(t, cimg(2, 2, TileRGB|TileAlpha, 0, append(rect, pixels...)))
		if info.Format != image.FormatRGBA8 || info.FormType != FormCIMG {
			t.Fatalf("info = %+v", info)
		}
		for y, w := range want {
			if got := buf.RowBytes(y); !bytes.Equal(got, w) {
				t.Errorf("row %d = %v, want %v", y, got, w)
			}
		}
	})

	t.Run("rle", func(t *testing.T) {
		// Planar: byte j of every pixel, j = 0..3, each plane a literal run.
		var packed []byte
		for j := range 4 {
			packed = append(packed, 3)
			for p := range 4 {
				packed = append(packed, pixels[p*4+j])
			}
		}
		buf, _ := mustDecode(t, cimg(2, 2, TileRGB|TileAlpha, 1, append(rect, packed...)))
		for y, w := range want {
			if got := buf.RowBytes(y); !bytes.Equal(got, w) {
				t.Errorf("row %d = %v, want %v", y, got, w)
			}
		}
	})

	t.Run("out of bounds", func(t *testing.T) {
		bad := []byte{0, 0, 0, 0, 0, 2, 0, 1}
		_, _, err := decode(t, cimg(2, 2, TileRGB, 0, append(bad, make([]byte, 18)...)), Options{})
		if !errors.Is(err, fault.ErrStructural) {
			t.Errorf("err = %v, want ErrStructural", err)
		}
	})
}

func TestParseCMAPShiftedNibbles(t *testing.T) {
	p := parseCMAP([]byte{0xf0, 0x80, 0x00, 0x10, 0x20, 0x30})
	if p[0] != (stdcolor.NRGBA{0xff, 0x88, 0, 0xff}) {
		t.Errorf("entry 0 = %v", p[0])
	}
	q := parseCMAP([]byte{0xf1, 0x80, 0x00})
	if q[0].R != 0xf1 || q[0].G != 0x80 {
		t.Errorf("full-range CMAP rescaled: %v", q[0])
	}
}

func TestParseCMYK(t *testing.T) {
	p := parseCMYK([]byte{0, 0, 0, 0, 0, 255, 255, 0})
	if p[0] != (stdcolor.NRGBA{255, 255, 255, 255}) || p[1] != (stdcolor.NRGBA{255, 0, 0, 255}) {
		t.Errorf("palette = %v", p)
	}
}

func FuzzDecode(f *testing.F) {
	f.Add(ilbm2x2(CompressNone, planar([][]uint64{{0, 1}, {2, 3}}, 2, 2, 0)))
	f.Add(ilbm2x2(CompressByteRun1, []byte{0x80, 0x40, 0x00, 0x00, 0x01, 0x00}))
	f.Fuzz(func(t *testing.T, data []byte) {
		src, err := stream.New(bytes.NewReader(data), stream.Options{})
		if err != nil {
			return
		}
		tree, err := chunk.Parse(src, chunk.Options{})
		if err != nil {
			return
		}
		_, _, _ = Decode(src, tree, Options{Limits: image.Limits{MaxBytes: 1 << 20}})
	})
}
