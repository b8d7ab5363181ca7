package tree

import (
	"fmt"

	"github.com/coreman2200/rgbtree/internal/layout"
)

// Key selects one or more pixels. Build keys with Index, Pos, Range, RangeStep,
// Segment and Layer.
type Key interface {
	fmt.Stringer
	// targets resolves the key to flat indices in assignment order.
	targets() ([]int, error)
}

type flatKey int

// Index selects one pixel by its position along the chain.
func Index(i int) Key { return flatKey(i) }

func (k flatKey) String() string { return fmt.Sprintf("[%d]", int(k)) }

func (k flatKey) targets() ([]int, error) {
	if k < 0 || int(k) >= layout.Count {
		return nil, fmt.Errorf("%w: index %d outside [0,%d)", ErrIndex, int(k), layout.Count)
	}
	return []int{int(k)}, nil
}

type posKey struct{ layer, segment int }

// Pos selects one pixel by layer and segment. On the star layer the segment only has
// to be valid; every segment addresses the same pixel.
func Pos(layer, segment int) Key { return posKey{layer, segment} }

func (k posKey) String() string { return fmt.Sprintf("[%d,%d]", k.layer, k.segment) }

func (k posKey) targets() ([]int, error) {
	i, err := layout.Index(k.layer, k.segment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndex, err)
	}
	return []int{i}, nil
}

type rangeKey struct{ start, stop, step int }

// Range selects flat indices start..stop-1.
func Range(start, stop int) Key { return rangeKey{start, stop, 1} }

// RangeStep selects start, start+step, ... below stop.
func RangeStep(start, stop, step int) Key { return rangeKey{start, stop, step} }

// All selects every pixel in chain order.
func All() Key { return rangeKey{0, layout.Count, 1} }

func (k rangeKey) String() string {
	if k.step == 1 {
		return fmt.Sprintf("[%d:%d]", k.start, k.stop)
	}
	return fmt.Sprintf("[%d:%d:%d]", k.start, k.stop, k.step)
}

func (k rangeKey) targets() ([]int, error) {
	if k.step <= 0 {
		return nil, fmt.Errorf("%w: step %d must be positive", ErrIndex, k.step)
	}
	if k.start < 0 || k.start > layout.Count || k.stop < 0 || k.stop > layout.Count {
		return nil, fmt.Errorf("%w: range %d:%d outside [0,%d]", ErrIndex, k.start, k.stop, layout.Count)
	}
	var out []int
	for i := k.start; i < k.stop; i += k.step {
		out = append(out, i)
	}
	return out, nil
}

type segmentKey int

// Segment selects the branch pixels of one segment, bottom layer first.
func Segment(segment int) Key { return segmentKey(segment) }

func (k segmentKey) String() string { return fmt.Sprintf("[:,%d]", int(k)) }

func (k segmentKey) targets() ([]int, error) {
	out, err := layout.Column(int(k))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndex, err)
	}
	return out, nil
}

type layerKey int

// Layer selects every segment of one layer in segment order. Layer 3 is the star
// alone.
func Layer(layer int) Key { return layerKey(layer) }

func (k layerKey) String() string { return fmt.Sprintf("[%d,:]", int(k)) }

func (k layerKey) targets() ([]int, error) {
	out, err := layout.Ring(int(k))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndex, err)
	}
	return out, nil
}
