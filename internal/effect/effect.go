// Package effect holds the named frame generators the conductor plays on the tree.
package effect

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/coreman2200/rgbtree/internal/tree"
)

var ErrUnknown = errors.New("unknown effect")

// Canvas is the part of *tree.Tree an effect draws on. Drawing never transmits;
// the caller commits after Step.
type Canvas interface {
	Len() int
	Set(k tree.Key, values ...tree.Color) error
	Fill(k tree.Key, c tree.Color) error
}

// Effect renders frame number n onto c. Frames count up from zero each time the
// effect becomes active.
type Effect interface {
	Name() string
	Step(c Canvas, n int) error
}

type Registry struct{ m map[string]Effect }

func NewRegistry() *Registry { return &Registry{m: map[string]Effect{}} }

func (r *Registry) Register(e Effect) {
	if e == nil {
		return
	}
	r.m[e.Name()] = e
}

func (r *Registry) Get(name string) (Effect, bool) { e, ok := r.m[name]; return e, ok }

// Lookup is Get with an error naming the missing effect.
func (r *Registry) Lookup(name string) (Effect, error) {
	e, ok := r.m[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknown, name)
	}
	return e, nil
}

func (r *Registry) List() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Builtins returns a registry with every stock effect. rng seeds the random ones.
func Builtins(rng *rand.Rand) *Registry {
	r := NewRegistry()
	r.Register(Swirl{})
	r.Register(NewSpin())
	r.Register(NewSparkle(rng))
	r.Register(NewRandom(rng))
	r.Register(NewSolid("off", tree.RGB(0, 0, 0)))
	r.Register(NewSolid("white", tree.RGB(255, 255, 255)))
	r.Register(IndexSweep{})
	r.Register(RGBChannels{})
	r.Register(LayerSweep{})
	return r
}
