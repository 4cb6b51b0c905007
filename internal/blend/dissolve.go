package blend

import (
	"math/rand/v2"
	"sync"
)

// DissolveTableSize is the number of row seeds in the dissolve table.
const DissolveTableSize = 4096

const dissolveSeed = 314159265

var dissolveTable = sync.OnceValue(func() *[DissolveTableSize]uint32 {
	var t [DissolveTableSize]uint32
	rng := rand.New(rand.NewPCG(dissolveSeed, 0))
	for i := range t {
		t[i] = rng.Uint32()
	}
	return &t
})

// DissolveTable returns the shared row-seed table. It must not be modified.
func DissolveTable() *[DissolveTableSize]uint32 {
	return dissolveTable()
}

// dissolveStream yields the per-pixel random values of one canvas row.
type dissolveStream struct {
	state uint32
}

// newDissolve positions the stream for row y so that the first call to next
// returns the value for canvas column x0.
func newDissolve(y, x0 int) dissolveStream {
	ds := dissolveStream{state: DissolveTable()[uint(y)%DissolveTableSize]}
	for range max(x0, 0) {
		ds.advance()
	}
	return ds
}

func (ds *dissolveStream) advance() {
	ds.state = ds.state*1103515245 + 12345
}

// next advances the stream and returns a value in [0, 32768).
func (ds *dissolveStream) next() uint32 {
	ds.advance()
	return (ds.state / 65536) % 32768
}

// dissolveAlpha makes the pixel either fully opaque or fully transparent,
// keeping it with probability sa/max.
func dissolveAlpha(r, sa, max uint32) uint32 {
	a8 := mulDiv(sa, 255, max)
	if a8 == 255 || r&0xff < a8 {
		return max
	}
	return 0
}
