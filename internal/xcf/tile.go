package xcf

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/image"
	"github.com/gogpu/imgdec/internal/rle"
	"github.com/gogpu/imgdec/internal/stream"
)

// TileSize is the edge of a full tile.
const TileSize = 64

// Rect is a tile rectangle in layer coordinates.
type Rect struct {
	X, Y, W, H int
}

// TileGrid returns the number of tile columns and rows covering w x h.
func TileGrid(w, h int) (cols, rows int) {
	return (w + TileSize - 1) / TileSize, (h + TileSize - 1) / TileSize
}

// TileRect returns the rectangle of tile i in row-major order. Tiles in the
// last column and row are clipped to the layer.
func TileRect(i, w, h int) Rect {
	cols, _ := TileGrid(w, h)
	x, y := i%cols*TileSize, i/cols*TileSize
	return Rect{X: x, Y: y, W: min(TileSize, w-x), H: min(TileSize, h-y)}
}

// level is the full-resolution level of a hierarchy.
type level struct {
	width, height int
	bpp           int
	tiles         []int64
}

// readLevel reads the hierarchy at ptr and its first level, and checks
// them against the owner's geometry.
func readLevel(r *stream.Reader, h Header, ptr int64, width, height, bpp int) (level, error) {
	const op = "xcf: hierarchy"
	if err := r.SeekTo(ptr); err != nil {
		return level{}, err
	}
	hw, err := r.U32()
	if err != nil {
		return level{}, err
	}
	hh, err := r.U32()
	if err != nil {
		return level{}, err
	}
	hbpp, err := r.U32()
	if err != nil {
		return level{}, err
	}
	if int(hw) != width || int(hh) != height {
		return level{}, fault.At(fault.KindStructural, op, ptr, "size %dx%d, owner is %dx%d", hw, hh, width, height)
	}
	if int(hbpp) != bpp {
		return level{}, fault.At(fault.KindStructural, op, ptr, "bpp %d, pixel type needs %d", hbpp, bpp)
	}
	lptr, err := readPointer(r, h)
	if err != nil {
		return level{}, err
	}
	if lptr == 0 {
		return level{}, fault.At(fault.KindStructural, op, ptr, "no level")
	}

	if err := r.SeekTo(lptr); err != nil {
		return level{}, err
	}
	lw, err := r.U32()
	if err != nil {
		return level{}, err
	}
	lh, err := r.U32()
	if err != nil {
		return level{}, err
	}
	if int(lw) != width || int(lh) != height {
		return level{}, fault.At(fault.KindStructural, "xcf: level", lptr, "size %dx%d, owner is %dx%d", lw, lh, width, height)
	}
	tiles, err := readPointers(r, h)
	if err != nil {
		return level{}, err
	}
	cols, rows := TileGrid(width, height)
	if len(tiles) != cols*rows {
		return level{}, fault.At(fault.KindStructural, "xcf: level", lptr,
			"%d tiles, %dx%d needs %d", len(tiles), width, height, cols*rows)
	}
	return level{width: width, height: height, bpp: bpp, tiles: tiles}, nil
}

// tileReader reads and decompresses tiles into a caller-provided buffer.
type tileReader struct {
	r           *stream.Reader
	compression Compression
	pool        *image.Pool
}

// storedBound is the largest compressed size accepted for the last tile of
// a level, whose size cannot be derived from the next pointer.
func storedBound(raw, bpp int) int {
	return raw + raw/2 + 16*bpp
}

// read fills raw with the decoded bytes of tile i of lv.
func (tr tileReader) read(lv level, i int, raw []byte) error {
	ptr := lv.tiles[i]
	if tr.compression == CompressNone {
		if err := tr.r.SeekTo(ptr); err != nil {
			return err
		}
		return tr.r.ReadFull(raw)
	}

	limit := int64(storedBound(len(raw), lv.bpp))
	if i+1 < len(lv.tiles) && lv.tiles[i+1] > ptr {
		limit = min(limit, lv.tiles[i+1]-ptr)
	}
	limit = min(limit, tr.r.Size()-ptr)
	if limit <= 0 {
		return fault.At(fault.KindTruncated, "xcf: tile", ptr, "tile %d has no data", i)
	}

	src := tr.pool.Bytes(int(limit))
	defer tr.pool.PutBytes(src)
	if _, err := tr.r.ReadAt(src, ptr); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	switch tr.compression {
	case CompressRLE:
		if _, err := rle.UnpackXCF(raw, src, lv.bpp); err != nil {
			var fe *fault.Error
			if errors.As(err, &fe) {
				fe.Offset = ptr
			}
			return err
		}
		return nil
	case CompressZlib:
		zr, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return fault.At(fault.KindStructural, "xcf: zlib tile", ptr, "tile %d: %v", i, err)
		}
		defer zr.Close()
		if _, err := io.ReadFull(zr, raw); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return fault.At(fault.KindTruncated, "xcf: zlib tile", ptr, "tile %d inflates short", i)
			}
			return fault.At(fault.KindStructural, "xcf: zlib tile", ptr, "tile %d: %v", i, err)
		}
		return nil
	}
	return fault.At(fault.KindUnsupported, "xcf: tile", ptr, "compression %s", tr.compression)
}
