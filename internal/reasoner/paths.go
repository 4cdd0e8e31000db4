package reasoner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/metrics"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// DefaultMaxHops is the hop bound used when callers have no preference.
const DefaultMaxHops = 3

// DefaultMaxExpansions bounds the work of one path query.
const DefaultMaxExpansions = 10000

// ErrBudgetExhausted is returned, together with the paths found so far,
// when a path search runs out of frontier expansions.
var ErrBudgetExhausted = errors.New("path search budget exhausted")

// Budget caps one path search. The context deadline applies as well.
type Budget struct {
	MaxExpansions int
}

// Step is one hop: the construct reached and the evidence for the edge.
type Step struct {
	Construct ontology.Ref `json:"construct" yaml:"construct"`
	Evidence  []Relation   `json:"evidence" yaml:"evidence"`
}

// Path runs from Start through each step's construct.
type Path struct {
	Start ontology.Ref `json:"start" yaml:"start"`
	Steps []Step       `json:"steps" yaml:"steps"`
}

// Hops is the number of edges on the path.
func (p Path) Hops() int { return len(p.Steps) }

// End is the last construct of the path.
func (p Path) End() ontology.Ref {
	if len(p.Steps) == 0 {
		return p.Start
	}
	return p.Steps[len(p.Steps)-1].Construct
}

func (p Path) String() string {
	s := p.Start.Label
	for _, st := range p.Steps {
		s += " -> " + st.Construct.Label
	}
	return s
}

// PathsBetween returns every simple path from a to b of at most maxHops
// edges, shortest first and, within a length, in IRI order. a and b may be
// IRIs or labels. When the budget or ctx runs out the paths found so far
// are returned with ErrBudgetExhausted or the context error.
func (r *Reasoner) PathsBetween(ctx context.Context, a, b string, maxHops int, budget Budget) (paths []Path, err error) {
	expansions := 0
	defer func() {
		metrics.PathExpansions.Observe(float64(expansions))
		switch {
		case errors.Is(err, ErrBudgetExhausted):
			metrics.PathQueryTotal.WithLabelValues("budget").Inc()
		case err != nil:
			metrics.PathQueryTotal.WithLabelValues("error").Inc()
		case len(paths) == 0:
			metrics.PathQueryTotal.WithLabelValues("none").Inc()
		default:
			metrics.PathQueryTotal.WithLabelValues("found").Inc()
		}
	}()

	if maxHops < 0 {
		return nil, apperr.InvalidArgument("maxHops must not be negative, got %d", maxHops)
	}
	from, err := r.resolver.Resolve(a, ontology.KindConstruct)
	if err != nil {
		return nil, err
	}
	to, err := r.resolver.Resolve(b, ontology.KindConstruct)
	if err != nil {
		return nil, err
	}
	if maxHops == 0 || from.IRI == to.IRI {
		return []Path{}, nil
	}
	limit := budget.MaxExpansions
	if limit <= 0 {
		limit = DefaultMaxExpansions
	}

	paths = []Path{}
	queue := [][]string{{from.IRI}}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return paths, fmt.Errorf("paths %s to %s: %w", from.Label, to.Label, err)
		}
		if expansions == limit {
			slog.Warn("path search budget exhausted", "from", from.IRI, "to", to.IRI, "expansions", expansions, "found", len(paths))
			return paths, ErrBudgetExhausted
		}
		cur := queue[0]
		queue = queue[1:]
		expansions++

		last := cur[len(cur)-1]
		for _, n := range r.sorted[last] {
			if contains(cur, n) {
				continue
			}
			next := append(append(make([]string, 0, len(cur)+1), cur...), n)
			if n == to.IRI {
				paths = append(paths, r.path(next))
				continue
			}
			if len(next)-1 < maxHops {
				queue = append(queue, next)
			}
		}
	}
	return paths, nil
}

func (r *Reasoner) path(nodes []string) Path {
	p := Path{Start: r.refs[nodes[0]], Steps: make([]Step, 0, len(nodes)-1)}
	for i := 1; i < len(nodes); i++ {
		p.Steps = append(p.Steps, Step{
			Construct: r.refs[nodes[i]],
			Evidence:  r.Relations(nodes[i-1], nodes[i]),
		})
	}
	return p
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
