package effect

import (
	"github.com/coreman2200/rgbtree/internal/layout"
	"github.com/coreman2200/rgbtree/internal/tree"
)

var (
	red    = tree.RGB(255, 0, 0)
	yellow = tree.RGB(255, 255, 0)
	green  = tree.RGB(0, 255, 0)
	blue   = tree.RGB(0, 0, 255)
	white  = tree.RGB(255, 255, 255)
)

// swirlBands are the bottom to top colours of a column, one set per pair of
// neighbouring segments.
var swirlBands = [4][3]tree.Color{
	{red, yellow, green},
	{yellow, green, blue},
	{green, blue, red},
	{blue, red, yellow},
}

// Swirl rotates four colour bands around the tree, one pair of segments per frame,
// under a white star.
type Swirl struct{}

func (Swirl) Name() string { return "swirl" }

func (Swirl) Step(c Canvas, n int) error {
	if err := c.Fill(tree.Layer(layout.StarLayer), white); err != nil {
		return err
	}
	for pair := 0; pair < layout.Segments/2; pair++ {
		band := swirlBands[mod(pair-n, len(swirlBands))]
		for _, seg := range []int{pair * 2, pair*2 + 1} {
			if err := c.Set(tree.Segment(seg), band[:]...); err != nil {
				return err
			}
		}
	}
	return nil
}

func mod(a, b int) int {
	a %= b
	if a < 0 {
		a += b
	}
	return a
}
