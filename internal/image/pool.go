package image

import "sync"

// Pool is a thread-safe pool of scratch buffers used while decoding.
//
// Tile buffers are grouped by dimensions and format, so the 64x64 tiles of an
// XCF layer reuse the same few buffers. Byte scratch (compressed tile data,
// plane rows) is grouped by power-of-two size class.
//
// Thread safety: All methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*ImageBuf
	scratch map[int][][]byte
	maxSize int // max buffers per bucket
}

// poolKey identifies a bucket of identical image specifications.
type poolKey struct {
	width  int
	height int
	format Format
}

// NewPool creates a pool that keeps at most maxPerBucket buffers of each
// shape. A maxPerBucket of 0 means unlimited.
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[poolKey][]*ImageBuf),
		scratch: make(map[int][][]byte),
		maxSize: maxPerBucket,
	}
}

// Get retrieves a cleared buffer from the pool or creates a new one.
// It returns nil for invalid dimensions or format.
func (p *Pool) Get(width, height int, format Format) *ImageBuf {
	key := poolKey{width: width, height: height, format: format}

	p.mu.Lock()
	bucket := p.buckets[key]
	if len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		buf.Clear()
		return buf
	}
	p.mu.Unlock()

	buf, err := NewImageBuf(width, height, format)
	if err != nil {
		return nil
	}
	return buf
}

// Put returns a buffer to the pool. Nil buffers and buffers beyond the
// bucket capacity are dropped.
func (p *Pool) Put(buf *ImageBuf) {
	if buf == nil {
		return
	}
	buf.palette = nil

	key := poolKey{width: buf.width, height: buf.height, format: buf.format}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, buf)
}

// Bytes returns a scratch slice of length n. The contents are not cleared.
func (p *Pool) Bytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	class := sizeClass(n)

	p.mu.Lock()
	list := p.scratch[class]
	if len(list) > 0 {
		b := list[len(list)-1]
		p.scratch[class] = list[:len(list)-1]
		p.mu.Unlock()
		return b[:n]
	}
	p.mu.Unlock()

	return make([]byte, n, class)
}

// PutBytes returns a slice obtained from Bytes.
func (p *Pool) PutBytes(b []byte) {
	c := cap(b)
	if c == 0 || c != sizeClass(c) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	list := p.scratch[c]
	if p.maxSize > 0 && len(list) >= p.maxSize {
		return
	}
	p.scratch[c] = append(list, b[:0])
}

// sizeClass rounds n up to a power of two.
func sizeClass(n int) int {
	c := 64
	for c < n {
		c <<= 1
	}
	return c
}

// defaultPool is the package-level pool used when a decode is not given one.
var defaultPool = NewPool(8)

// Default returns the package-level pool.
func Default() *Pool {
	return defaultPool
}
