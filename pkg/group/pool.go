package group

import "sync"

// ScratchPool provides a memory pool for scratch Scalar/Point values. The
// proof and MAC engines in this module do not draw from it; they allocate
// their values directly. Grounded on the teacher's bbs/pool.go sync.Pool
// usage, narrowed to the two types this package actually has.
type ScratchPool struct {
	scalars sync.Pool
	points  sync.Pool
}

// NewScratchPool creates a pool. The zero value is also usable; NewScratchPool
// only exists to mirror the teacher's constructor idiom and to document pool
// ownership at call sites that hold onto one across many operations.
func NewScratchPool() *ScratchPool {
	p := &ScratchPool{}
	p.scalars.New = func() interface{} { z := NewScalar(); return &z }
	p.points.New = func() interface{} { z := NewPoint(); return &z }
	return p
}

// Default is the package-wide pool used by callers that don't need isolated
// pooling (mirrors the teacher's defaultPool singleton).
var Default = NewScratchPool()

func (p *ScratchPool) GetScalar() *Scalar {
	if p.scalars.New == nil {
		p.scalars.New = func() interface{} { z := NewScalar(); return &z }
	}
	s := p.scalars.Get().(*Scalar)
	*s = NewScalar()
	return s
}

func (p *ScratchPool) PutScalar(s *Scalar) {
	if s != nil {
		p.scalars.Put(s)
	}
}

func (p *ScratchPool) GetPoint() *Point {
	if p.points.New == nil {
		p.points.New = func() interface{} { z := NewPoint(); return &z }
	}
	pt := p.points.Get().(*Point)
	*pt = NewPoint()
	return pt
}

func (p *ScratchPool) PutPoint(pt *Point) {
	if pt != nil {
		p.points.Put(pt)
	}
}
