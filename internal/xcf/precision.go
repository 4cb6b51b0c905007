package xcf

import (
	"math"

	"github.com/x448/float16"

	"github.com/gogpu/imgdec/internal/color"
	"github.com/gogpu/imgdec/internal/fault"
)

// Component is the storage type of one channel.
type Component uint8

const (
	U8 Component = iota
	U16
	U32
	Half
	Float
	Double
)

var componentSizes = [...]int{U8: 1, U16: 2, U32: 4, Half: 2, Float: 4, Double: 8}

var componentNames = [...]string{U8: "u8", U16: "u16", U32: "u32", Half: "half", Float: "float", Double: "double"}

// Size returns the bytes per channel.
func (c Component) Size() int {
	return componentSizes[c]
}

func (c Component) String() string {
	return componentNames[c]
}

// Precision is a component type and whether it stores linear light.
type Precision struct {
	Component Component
	Linear    bool
}

func (p Precision) String() string {
	if p.Linear {
		return p.Component.String() + " linear"
	}
	return p.Component.String() + " non-linear"
}

// Deep reports whether the precision is composited at 16 bits.
func (p Precision) Deep() bool {
	return p.Component != U8
}

// parsePrecision normalises the three historical precision encodings.
func parsePrecision(version int, v uint32) (Precision, error) {
	if version == 4 {
		switch v {
		case 0:
			return Precision{U8, false}, nil
		case 1:
			return Precision{U16, false}, nil
		case 2:
			return Precision{U32, true}, nil
		case 3:
			return Precision{Half, true}, nil
		case 4:
			return Precision{Float, true}, nil
		}
		return Precision{}, fault.New(fault.KindUnsupported, "xcf: precision", "%d in version 4", v)
	}

	// Versions 5 and later: hundreds select the component, the remainder
	// 0 is linear, 50 non-linear and 75 (version 7+) perceptual.
	comp := map[uint32]Component{100: U8, 200: U16, 300: U32, 400: Half, 500: Float}
	if version >= 7 {
		comp[600] = Double
	}
	c, ok := comp[v/100*100]
	rest := v % 100
	if !ok || (rest != 0 && rest != 50 && !(rest == 75 && version >= 7)) {
		return Precision{}, fault.New(fault.KindUnsupported, "xcf: precision", "%d in version %d", v, version)
	}
	return Precision{Component: c, Linear: rest == 0}, nil
}

// sample converts one stored channel to the working depth. Colour channels
// of linear precisions are converted to perceptual sRGB; alpha and mask
// values never are.
func (p Precision) sample(b []byte, transfer bool) uint32 {
	lin := p.Linear && transfer
	switch p.Component {
	case U8:
		if lin {
			return uint32(color.Linear8ToSRGB8(b[0]))
		}
		return uint32(b[0])
	case U16:
		v := be.Uint16(b)
		if lin {
			return uint32(color.Linear16ToSRGB16(v))
		}
		return uint32(v)
	case U32:
		v := be.Uint32(b)
		if lin {
			return uint32(color.LinearFloatToSRGB16(float64(v) / math.MaxUint32))
		}
		return v >> 16
	case Half:
		return floatSample(float64(float16.Frombits(be.Uint16(b)).Float32()), lin)
	case Float:
		return floatSample(float64(math.Float32frombits(be.Uint32(b))), lin)
	case Double:
		return floatSample(math.Float64frombits(be.Uint64(b)), lin)
	}
	return 0
}

func floatSample(f float64, lin bool) uint32 {
	if lin {
		return uint32(color.LinearFloatToSRGB16(f))
	}
	return uint32(color.Quantize16(f))
}
