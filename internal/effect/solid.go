package effect

import "github.com/coreman2200/rgbtree/internal/tree"

// Solid fills the tree with a single colour.
type Solid struct {
	name string
	c    tree.Color
}

func NewSolid(name string, c tree.Color) *Solid { return &Solid{name: name, c: c} }

func (s *Solid) Name() string { return s.name }

func (s *Solid) Step(c Canvas, _ int) error { return c.Fill(tree.All(), s.c) }
