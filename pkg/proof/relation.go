package proof

import (
	"sort"

	"github.com/acdp/acdp-core/internal/common"
	"github.com/acdp/acdp-core/pkg/group"
)

// Term is one summand scalar_i · element_j of a linear-relation equation.
// Witness names a secret scalar variable (see Relation.Witnesses); Point is
// the public group element it multiplies.
type Term struct {
	Witness string
	Point   group.Point
}

// Equation states Target = Σ Terms[i].Witness · Terms[i].Point for the
// named secret witnesses. Any contribution from two PUBLIC scalars (e.g. a
// known nonce times a known point) must be folded into Target by the
// caller before the Equation is built — the DSL only model secret-witness
// terms, per spec.md §4.3's bipartite "scalar variables (some secret
// witnesses, some public)" description: public*public terms carry no
// information a prover needs to prove knowledge of, so they collapse to a
// constant adjustment of the target point.
type Equation struct {
	Label  string
	Target group.Point
	Terms  []Term
}

// Relation is a compiled linear-relation DSL instance: a bipartite graph of
// secret scalar witnesses and public group elements, plus the equations
// relating them. The engine compiles it into a Σ-protocol per spec.md §4.3.
type Relation struct {
	Witnesses []string
	Equations []Equation
}

// NewRelation builds a Relation over the given witness names, validating
// that every equation only references declared witnesses.
func NewRelation(witnesses []string, equations []Equation) (*Relation, error) {
	known := make(map[string]bool, len(witnesses))
	for _, w := range witnesses {
		known[w] = true
	}
	for _, eq := range equations {
		for _, term := range eq.Terms {
			if !known[term.Witness] {
				return nil, &Error{Kind: "Malformed", Err: common.ErrInvalidParameter}
			}
		}
	}

	sorted := append([]string(nil), witnesses...)
	sort.Strings(sorted)

	return &Relation{Witnesses: sorted, Equations: equations}, nil
}

func (r *Relation) evaluateEquation(eq Equation, scalarOf func(name string) group.Scalar) (group.Point, error) {
	points := make([]group.Point, len(eq.Terms))
	scalars := make([]group.Scalar, len(eq.Terms))
	for i, term := range eq.Terms {
		points[i] = term.Point
		scalars[i] = scalarOf(term.Witness)
	}
	return group.LinearCombination(points, scalars)
}
