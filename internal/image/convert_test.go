package image

import (
	"image"
	"image/color"
	"testing"
)

func TestToStdImage(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatGray8, "*image.Gray"},
		{FormatGray16, "*image.Gray16"},
		{FormatIndexed8, "*image.Paletted"},
		{FormatRGB8, "*image.NRGBA"},
		{FormatRGBA8, "*image.NRGBA"},
		{FormatRGB16, "*image.NRGBA64"},
		{FormatRGBA16, "*image.NRGBA64"},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			buf, _ := NewImageBuf(3, 2, tt.format)
			for i := range buf.Data() {
				buf.Data()[i] = byte(i * 7)
			}
			buf.SetPalette(grayPalette())

			img := buf.ToStdImage()
			if got := typeName(img); got != tt.want {
				t.Fatalf("type = %s, want %s", got, tt.want)
			}
			if img.Bounds() != image.Rect(0, 0, 3, 2) {
				t.Fatalf("bounds = %v", img.Bounds())
			}
			for y := range 2 {
				for x := range 3 {
					wr, wg, wb, wa := buf.RGBA64At(x, y).RGBA()
					r, g, b, a := img.At(x, y).RGBA()
					if r != wr || g != wg || b != wb || a != wa {
						t.Errorf("(%d,%d) = %d,%d,%d,%d want %d,%d,%d,%d", x, y, r, g, b, a, wr, wg, wb, wa)
					}
				}
			}
		})
	}
}

func grayPalette() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.NRGBA{uint8(i), uint8(i), uint8(i), 0xff}
	}
	return p
}

func typeName(img image.Image) string {
	switch img.(type) {
	case *image.Gray:
		return "*image.Gray"
	case *image.Gray16:
		return "*image.Gray16"
	case *image.Paletted:
		return "*image.Paletted"
	case *image.NRGBA:
		return "*image.NRGBA"
	case *image.NRGBA64:
		return "*image.NRGBA64"
	default:
		return "other"
	}
}
