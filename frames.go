package fbmirror

// unset marks a sample that was never committed. It never equals a logical
// sample, so a commit against it always stores.
const unset = 0xFF

// framePair owns the current and previous frames. Roles are tracked by index
// and swapped after each commit without copying.
type framePair struct {
	buf [2][]byte
	cur int
}

func newFramePair(n int, policy FirstFramePolicy) *framePair {
	p := &framePair{
		buf: [2][]byte{make([]byte, n), make([]byte, n)},
	}
	if policy == FirstFrameFull {
		prev := p.previous()
		for i := range prev {
			prev[i] = unset
		}
	}
	return p
}

// current returns the frame being computed.
func (p *framePair) current() []byte { return p.buf[p.cur] }

// previous returns the last committed frame.
func (p *framePair) previous() []byte { return p.buf[p.cur^1] }

func (p *framePair) swap() { p.cur ^= 1 }

// commit stores current[i] into r for every index where it differs from
// previous[i], in row-major order, then swaps the roles. After commit,
// previous() is the frame that was just committed.
func (p *framePair) commit(r Region, enc Encoding) int {
	cur, prev := p.current(), p.previous()
	writes := 0
	for i, s := range cur {
		if s != prev[i] {
			r.Store(i, enc.value(s))
			writes++
		}
	}
	p.swap()
	return writes
}
