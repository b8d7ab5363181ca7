package effect

import (
	"github.com/coreman2200/rgbtree/internal/layout"
	"github.com/coreman2200/rgbtree/internal/tree"
)

// Calibration sweeps. Each one loops, so they can be left running while checking
// the wiring.

// IndexSweep lights one pixel white, in flat index order.
type IndexSweep struct{}

func (IndexSweep) Name() string { return "index_sweep" }

func (IndexSweep) Step(c Canvas, n int) error {
	if err := c.Fill(tree.All(), tree.RGB(0, 0, 0)); err != nil {
		return err
	}
	return c.Fill(tree.Index(mod(n, c.Len())), white)
}

// RGBChannels shows all red, then all green, then all blue.
type RGBChannels struct{}

func (RGBChannels) Name() string { return "rgb_channels" }

func (RGBChannels) Step(c Canvas, n int) error {
	return c.Fill(tree.All(), [...]tree.Color{red, green, blue}[mod(n, 3)])
}

// LayerSweep lights one layer cyan at a time, bottom to star.
type LayerSweep struct{}

func (LayerSweep) Name() string { return "layer_sweep" }

func (LayerSweep) Step(c Canvas, n int) error {
	if err := c.Fill(tree.All(), tree.RGB(0, 0, 0)); err != nil {
		return err
	}
	return c.Fill(tree.Layer(mod(n, layout.Layers)), tree.RGB(0, 255, 255))
}
