package iff

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/gogpu/imgdec/internal/chunk"
)

// textChunks maps the IFF text chunks to metadata keys.
var textChunks = []struct {
	tag chunk.Tag
	key string
}{
	{chunk.MakeTag("NAME"), "Name"},
	{chunk.MakeTag("AUTH"), "Author"},
	{chunk.MakeTag("ANNO"), "Annotation"},
	{chunk.MakeTag("(c) "), "Copyright"},
	{chunk.MakeTag("FVER"), "Version"},
	{chunk.MakeTag("DATE"), "Date"},
}

// decodeLatin1 decodes an ISO-8859-1 string, dropping the NUL padding some
// writers append.
func decodeLatin1(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(s))
}

// frameText collects the text chunks of a frame and of the file's top
// level. Repeated chunks are joined with newlines.
func frameText(f chunk.Frame, roots []*chunk.Chunk) map[string]string {
	var out map[string]string
	add := func(key string, c *chunk.Chunk) {
		s := decodeLatin1(c.Data())
		if s == "" {
			return
		}
		if out == nil {
			out = make(map[string]string)
		}
		if prev, ok := out[key]; ok {
			if prev == s {
				return
			}
			s = prev + "\n" + s
		}
		out[key] = s
	}
	for _, tc := range textChunks {
		for _, c := range chunk.FindAll(f.Form.Children, tc.tag) {
			add(tc.key, c)
		}
		for _, r := range roots {
			if r.Tag == tc.tag {
				add(tc.key, r)
			}
		}
	}
	return out
}
