package led

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"
)

// Renderer turns an encoded frame back into an image, one pixel per LED.
type Renderer func(frame []byte) (image.Image, error)

// Sim draws frames on a periph display.Drawer instead of real pixels; by default the
// ANSI console screen.
type Sim struct {
	mu     sync.Mutex
	drawer display.Drawer
	render Renderer
	out    io.Writer
	Count  int
}

// OpenSim prints frames on stdout.
func OpenSim(n int, r Renderer) *Sim {
	return NewSim(screen.New(n), r, os.Stdout)
}

// NewSim draws on d; out, if non-nil, receives a line break after each frame.
func NewSim(d display.Drawer, r Renderer, out io.Writer) *Sim {
	return &Sim{drawer: d, render: r, out: out}
}

func (s *Sim) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drawer == nil {
		return errors.New("sim closed")
	}
	img, err := s.render(frame)
	if err != nil {
		return fmt.Errorf("sim decode: %w", err)
	}
	if err := s.drawer.Draw(s.drawer.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("sim draw: %w", err)
	}
	if s.out != nil {
		fmt.Fprint(s.out, "\n")
	}
	s.Count++
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawer == nil {
		return nil
	}
	err := s.drawer.Halt()
	s.drawer = nil
	return err
}

func (s *Sim) String() string { return "sim" }
