package effect

import (
	"math/rand"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/rgbtree/internal/layout"
	"github.com/coreman2200/rgbtree/internal/tree"
)

// hsv converts a hue in degrees at full saturation and the given value.
func hsv(h, v float64) tree.Color {
	r, g, b := colorful.Hsv(h, 1, v).Clamped().RGB255()
	return tree.RGB(int(r), int(g), int(b))
}

// Random gives every pixel its own random fully saturated colour each frame.
type Random struct{ rng *rand.Rand }

func NewRandom(rng *rand.Rand) *Random { return &Random{rng: rng} }

func (*Random) Name() string { return "random" }

func (e *Random) Step(c Canvas, _ int) error {
	vals := make([]tree.Color, c.Len())
	for i := range vals {
		vals[i] = hsv(e.rng.Float64()*360, 1)
	}
	return c.Set(tree.All(), vals...)
}

// Sparkle lights a few random pixels white over a dim colour that drifts around
// the hue wheel.
type Sparkle struct {
	rng   *rand.Rand
	Count int
}

func NewSparkle(rng *rand.Rand) *Sparkle { return &Sparkle{rng: rng, Count: 4} }

func (*Sparkle) Name() string { return "sparkle" }

func (e *Sparkle) Step(c Canvas, n int) error {
	base := hsv(float64(n*7%360), 1)
	if err := c.Fill(tree.All(), tree.BRGB(4, base[0], base[1], base[2])); err != nil {
		return err
	}
	for i := 0; i < e.Count; i++ {
		if err := c.Fill(tree.Index(e.rng.Intn(c.Len())), white); err != nil {
			return err
		}
	}
	return nil
}

// Spin walks one lit segment around the tree while its hue slowly turns. The
// trailing segment keeps a faded copy.
type Spin struct{ hueStep float64 }

func NewSpin() *Spin { return &Spin{hueStep: 15} }

func (*Spin) Name() string { return "spin" }

func (e *Spin) Step(c Canvas, n int) error {
	if err := c.Fill(tree.All(), tree.RGB(0, 0, 0)); err != nil {
		return err
	}
	h := float64(n) * e.hueStep
	head := mod(n, layout.Segments)
	if err := c.Fill(tree.Segment(mod(head-1, layout.Segments)), hsv(h, 0.25)); err != nil {
		return err
	}
	if err := c.Fill(tree.Segment(head), hsv(h, 1)); err != nil {
		return err
	}
	return c.Fill(tree.Layer(layout.StarLayer), white)
}
