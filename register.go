package imgdec

import (
	"bytes"
	"context"
	stdimage "image"
	"image/color"
	"io"
)

// init registers the IFF group tags and the XCF signature with image.Decode.
func init() {
	for _, magic := range []string{"FORM", "FOR4", "FOR8", "LIST", "LIS4", "LIS8", "CAT ", "CAT4", "CAT8"} {
		stdimage.RegisterFormat("iff", magic, decodeStd, decodeStdConfig)
	}
	stdimage.RegisterFormat("xcf", "gimp xcf ", decodeStd, decodeStdConfig)
}

// seekable returns r as an io.ReadSeeker, buffering it in memory when it
// cannot seek. image.Decode hands over a bufio.Reader.
func seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

func decodeStd(r io.Reader) (stdimage.Image, error) {
	rs, err := seekable(r)
	if err != nil {
		return nil, err
	}
	raster, err := Decode(context.Background(), rs)
	if err != nil {
		return nil, err
	}
	return raster.Image(), nil
}

func decodeStdConfig(r io.Reader) (stdimage.Config, error) {
	rs, err := seekable(r)
	if err != nil {
		return stdimage.Config{}, err
	}
	cfg, err := DecodeConfig(context.Background(), rs)
	if err != nil {
		return stdimage.Config{}, err
	}
	return stdimage.Config{
		ColorModel: colorModel(cfg.Format),
		Width:      cfg.Width,
		Height:     cfg.Height,
	}, nil
}

// colorModel returns the model of the image Raster.Image produces for f.
// Indexed rasters report color.NRGBAModel, since their palette is only
// known after decoding.
func colorModel(f Format) color.Model {
	switch f {
	case FormatGray8:
		return color.GrayModel
	case FormatGray16:
		return color.Gray16Model
	case FormatRGB16, FormatRGBA16:
		return color.NRGBA64Model
	default:
		return color.NRGBAModel
	}
}
