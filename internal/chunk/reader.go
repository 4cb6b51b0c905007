package chunk

import (
	"log/slog"

	"github.com/gogpu/imgdec/internal/fault"
	"github.com/gogpu/imgdec/internal/stream"
)

// DefaultMaxDepth is the nesting cap. Containers deeper than this are kept
// as opaque chunks and their children are not parsed.
const DefaultMaxDepth = 10

// handler describes how a tag is parsed.
type handler struct {
	kind  Kind
	align int  // alignment for the container's children; 0 inherits
	wide  bool // 64-bit length field; implied for every chunk in an 8-aligned scope
}

var defaultHandler = handler{kind: KindOpaque}

// registry maps every recognised tag to its handler. Unknown tags use
// defaultHandler.
var registry = map[Tag]handler{
	MakeTag("FORM"): {kind: KindForm, align: 2},
	MakeTag("LIST"): {kind: KindList, align: 2},
	MakeTag("CAT "): {kind: KindCat, align: 2},
	MakeTag("PROP"): {kind: KindProp, align: 2},

	MakeTag("FOR4"): {kind: KindForm, align: 4},
	MakeTag("LIS4"): {kind: KindList, align: 4},
	MakeTag("CAT4"): {kind: KindCat, align: 4},
	MakeTag("PRO4"): {kind: KindProp, align: 4},

	MakeTag("FOR8"): {kind: KindForm, align: 8, wide: true},
	MakeTag("LIS8"): {kind: KindList, align: 8, wide: true},
	MakeTag("CAT8"): {kind: KindCat, align: 8, wide: true},
	MakeTag("PRO8"): {kind: KindProp, align: 8, wide: true},
}

// dataTags are the payload chunks the image decoders understand.
var dataTags = []string{
	"BMHD", "CMAP", "CAMG", "BODY", "CMYK", "CTBL", "SHAM", "DPI ", "ABIT",
	"NAME", "AUTH", "ANNO", "(c) ", "FVER", "DATE",
	"TBHD", "RGBA", "ZBUF",
}

// TagKind returns the kind the parser assigns to chunks tagged t.
func TagKind(t Tag) Kind {
	if h, ok := registry[t]; ok {
		return h.kind
	}
	return defaultHandler.kind
}

func init() {
	for _, s := range dataTags {
		registry[MakeTag(s)] = handler{kind: KindData}
	}
}

// Options configures Parse.
type Options struct {
	// MaxDepth overrides DefaultMaxDepth when positive.
	MaxDepth int

	// Logger receives warnings about dropped branches. Nil discards them.
	Logger *slog.Logger
}

type parser struct {
	r        *stream.Reader
	maxDepth int
	log      *slog.Logger

	// first branch failure, reported when nothing else could be parsed
	branchErr error
}

// scope is the parse context of a chunk list.
type scope struct {
	align int
	depth int
	end   int64
}

// Parse reads the chunk forest starting at the current offset of r.
//
// An invalid tag fails the whole parse. A chunk whose declared length runs
// past its container or the stream drops that chunk and ends its sibling
// list; chunks already parsed stay in the tree and the parse continues with
// the ancestors' next siblings. If no chunk at all could be parsed the
// branch error is returned.
func Parse(r *stream.Reader, opts Options) ([]*Chunk, error) {
	p := &parser{
		r:        r,
		maxDepth: opts.MaxDepth,
		log:      opts.Logger,
	}
	if p.maxDepth <= 0 {
		p.maxDepth = DefaultMaxDepth
	}
	if p.log == nil {
		p.log = slog.New(slog.DiscardHandler)
	}

	roots, err := p.list(scope{align: 2, end: r.Size()})
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		if p.branchErr != nil {
			return nil, p.branchErr
		}
		return nil, fault.At(fault.KindStructural, "chunk: parse", r.Pos(), "no chunks")
	}
	return roots, nil
}

// lookup returns the handler for tag at the given depth.
func (p *parser) lookup(tag Tag, depth int) handler {
	h, ok := registry[tag]
	if !ok {
		return defaultHandler
	}
	if depth >= p.maxDepth {
		// Past the cap only the length width is honoured.
		return handler{kind: KindOpaque, wide: h.wide}
	}
	return h
}

// list parses sibling chunks until the end of the scope.
func (p *parser) list(s scope) ([]*Chunk, error) {
	var out []*Chunk
	for {
		if err := p.r.Check(); err != nil {
			return out, err
		}
		pos := p.r.Pos()
		if pos+8 > s.end {
			// Trailing padding or a stray byte; nothing more fits.
			return out, nil
		}

		head, err := p.r.Peek(4)
		if err != nil {
			return out, err
		}
		tag := Tag(head)
		if !tag.Valid() {
			return out, fault.At(fault.KindStructural, "chunk: parse", pos, "invalid tag %q", head)
		}

		c, err := p.chunk(tag, s)
		if err != nil {
			if fault.KindOf(err) == fault.KindTruncated {
				p.dropBranch(tag, pos, err)
				return out, nil
			}
			return out, err
		}
		out = append(out, c)

		next := c.NextOffset()
		if next >= s.end {
			return out, nil
		}
		if err := p.r.SeekTo(next); err != nil {
			return out, err
		}
	}
}

func (p *parser) dropBranch(tag Tag, pos int64, err error) {
	p.log.Warn("chunk: dropping branch", "tag", tag.String(), "offset", pos, "err", err)
	if p.branchErr == nil {
		p.branchErr = err
	}
}

// chunk parses one chunk header and, for containers, its children.
func (p *parser) chunk(tag Tag, s scope) (*Chunk, error) {
	h := p.lookup(tag, s.depth)
	start := p.r.Pos()

	if err := p.r.Skip(4); err != nil {
		return nil, err
	}
	var size uint64
	if h.wide || s.align == 8 {
		v, err := p.r.U64()
		if err != nil {
			return nil, err
		}
		size = v
	} else {
		v, err := p.r.U32()
		if err != nil {
			return nil, err
		}
		size = uint64(v)
	}

	c := &Chunk{
		Tag:    tag,
		Kind:   h.kind,
		Size:   size,
		Offset: p.r.Pos(),
		Align:  s.align,
		Depth:  s.depth,
	}
	if h.kind.IsContainer() {
		c.Align = h.align
	}

	if avail := s.end - c.Offset; avail < 0 || size > uint64(avail) {
		return nil, fault.At(fault.KindTruncated, "chunk: "+tag.String(), start,
			"length %d runs past end at %d", size, s.end)
	}
	end := c.Offset + int64(size)

	if !h.kind.IsContainer() {
		if size > 0 && size <= MaxCachedSize {
			data, err := p.r.Bytes(int64(size))
			if err != nil {
				return nil, err
			}
			c.data = data
		}
		return c, nil
	}

	if size < 4 {
		return nil, fault.At(fault.KindTruncated, "chunk: "+tag.String(), start, "container of %d bytes has no form type", size)
	}
	head, err := p.r.Bytes(4)
	if err != nil {
		return nil, err
	}
	c.FormType = Tag(head)

	children, err := p.list(scope{align: h.align, depth: s.depth + 1, end: end})
	c.Children = children
	if err != nil {
		return nil, err
	}
	return c, nil
}
