package chunk

import "slices"

// Walk visits chunks depth-first in file order. Returning false from fn stops
// the walk.
func Walk(chunks []*Chunk, fn func(*Chunk) bool) bool {
	for _, c := range chunks {
		if !fn(c) {
			return false
		}
		if !Walk(c.Children, fn) {
			return false
		}
	}
	return true
}

// Find returns the first chunk with the given tag in depth-first order, or
// nil.
func Find(chunks []*Chunk, tag Tag) *Chunk {
	var found *Chunk
	Walk(chunks, func(c *Chunk) bool {
		if c.Tag == tag {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every chunk with the given tag in depth-first order.
func FindAll(chunks []*Chunk, tag Tag) []*Chunk {
	var out []*Chunk
	Walk(chunks, func(c *Chunk) bool {
		if c.Tag == tag {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Frame is one image form together with the PROP chunks of its enclosing
// LISTs that share its form type.
type Frame struct {
	Form  *Chunk
	Props []*Chunk // outermost first
}

// Frames returns the outermost forms whose type is one of types. Forms nested
// inside a matching form belong to that frame and are not returned.
func Frames(chunks []*Chunk, types ...Tag) []Frame {
	var out []Frame
	collectFrames(chunks, types, nil, &out)
	return out
}

func collectFrames(chunks []*Chunk, types []Tag, props []*Chunk, out *[]Frame) {
	// PROPs apply to the forms that follow them in the same list.
	local := props
	for _, c := range chunks {
		switch {
		case c.Kind == KindProp && slices.Contains(types, c.FormType):
			local = append(local[:len(local):len(local)], c)
		case c.Kind == KindForm && slices.Contains(types, c.FormType):
			*out = append(*out, Frame{Form: c, Props: propsFor(local, c.FormType)})
		case c.Kind.IsContainer():
			collectFrames(c.Children, types, local, out)
		}
	}
}

func propsFor(props []*Chunk, formType Tag) []*Chunk {
	var out []*Chunk
	for _, p := range props {
		if p.FormType == formType {
			out = append(out, p)
		}
	}
	return out
}

// Find returns the first chunk with the given tag inside the frame's form.
// When the form has none, the innermost PROP that carries one is used.
func (f Frame) Find(tag Tag) *Chunk {
	if c := Find(f.Form.Children, tag); c != nil {
		return c
	}
	for i := len(f.Props) - 1; i >= 0; i-- {
		if c := Find(f.Props[i].Children, tag); c != nil {
			return c
		}
	}
	return nil
}
