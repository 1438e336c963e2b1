package memory

// pinSet tracks the outstanding guards of one reader by ticket. A
// guard copied and released twice finds its ticket gone the second
// time, so it cannot unpin an enclosing guard.
type pinSet struct {
	next uint64
	open []uint64
}

func (p *pinSet) depth() int { return len(p.open) }

func (p *pinSet) acquire() uint64 {
	p.next++
	p.open = append(p.open, p.next)
	return p.next
}

// release drops ticket t. It reports whether t was outstanding.
func (p *pinSet) release(t uint64) bool {
	for i := len(p.open) - 1; i >= 0; i-- {
		if p.open[i] == t {
			p.open = append(p.open[:i], p.open[i+1:]...)
			return true
		}
	}
	return false
}
