// Package tree drives the 25 pixel RGB Christmas tree.
//
// Writes only touch an in-memory frame buffer. Nothing reaches the strip until
// Commit, which encodes the whole buffer and hands it to the driver in a single
// transfer, however many pixels changed since the last commit.
//
// A Tree has a single owner and no internal locking.
package tree

import (
	"errors"
	"fmt"

	"github.com/coreman2200/rgbtree/internal/layout"
	"github.com/coreman2200/rgbtree/internal/led"
)

var errClosed = errors.New("driver closed")

type Tree struct {
	drv     led.Driver
	pixels  [layout.Count]Pixel
	buf     []byte
	commits int
}

// Open acquires a driver and returns a tree with every pixel off. Nothing is
// transmitted until the first Commit.
func Open(open led.Opener) (*Tree, error) {
	if open == nil {
		return nil, fmt.Errorf("%w: no driver opener", ErrConfiguration)
	}
	d, err := open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: opener returned no driver", ErrConfiguration)
	}
	return &Tree{drv: d, buf: make([]byte, 0, FrameLen)}, nil
}

// Len is the number of pixels.
func (t *Tree) Len() int { return layout.Count }

// Set assigns one value per selected pixel, in the key's selection order. Either all
// values are applied or, on error, none.
func (t *Tree) Set(k Key, values ...Color) error {
	idx, err := k.targets()
	if err != nil {
		return err
	}
	if len(values) != len(idx) {
		return fmt.Errorf("%w: %s selects %d pixels, got %d values", ErrShapeMismatch, k, len(idx), len(values))
	}
	px := make([]Pixel, len(values))
	for i, v := range values {
		if px[i], err = v.pixel(); err != nil {
			return fmt.Errorf("%s value %d: %w", k, i, err)
		}
	}
	for i, j := range idx {
		t.pixels[j] = px[i]
	}
	return nil
}

// Fill assigns the same value to every selected pixel.
func (t *Tree) Fill(k Key, c Color) error {
	idx, err := k.targets()
	if err != nil {
		return err
	}
	p, err := c.pixel()
	if err != nil {
		return fmt.Errorf("%s: %w", k, err)
	}
	for _, j := range idx {
		t.pixels[j] = p
	}
	return nil
}

// Get returns the pending state of the selected pixels.
func (t *Tree) Get(k Key) ([]Pixel, error) {
	idx, err := k.targets()
	if err != nil {
		return nil, err
	}
	out := make([]Pixel, len(idx))
	for i, j := range idx {
		out[i] = t.pixels[j]
	}
	return out, nil
}

// Pixel returns the pending state of one pixel by flat index.
func (t *Tree) Pixel(i int) (Pixel, error) {
	idx, err := Index(i).targets()
	if err != nil {
		return Pixel{}, err
	}
	return t.pixels[idx[0]], nil
}

// Frame returns a copy of the whole pending buffer.
func (t *Tree) Frame() [layout.Count]Pixel { return t.pixels }

// SetBrightness changes the brightness of every pixel, keeping colours.
func (t *Tree) SetBrightness(b int) error {
	if b < 0 || b > MaxBrightness {
		return fmt.Errorf("%w: brightness %d outside [0,%d]", ErrValue, b, MaxBrightness)
	}
	for i := range t.pixels {
		t.pixels[i].Brightness = uint8(b)
	}
	return nil
}

// Brightness is the mean brightness over all pixels.
func (t *Tree) Brightness() float64 {
	sum := 0
	for _, p := range t.pixels {
		sum += int(p.Brightness)
	}
	return float64(sum) / layout.Count
}

// Clear turns every pixel off without transmitting.
func (t *Tree) Clear() {
	t.pixels = [layout.Count]Pixel{}
}

// Commit encodes the buffer and transmits it in one driver write. On failure the
// buffer is left as it was, so Commit can simply be retried.
func (t *Tree) Commit() error {
	if t.drv == nil {
		return fmt.Errorf("%w: %w", ErrTransport, errClosed)
	}
	t.buf = Encode(t.buf[:0], &t.pixels)
	if err := t.drv.Write(t.buf); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	t.commits++
	return nil
}

// Commits counts successful commits.
func (t *Tree) Commits() int { return t.commits }

// Off clears the buffer and commits it.
func (t *Tree) Off() error {
	t.Clear()
	return t.Commit()
}

// Close releases the driver. Further commits fail; closing twice is a no-op.
func (t *Tree) Close() error {
	if t.drv == nil {
		return nil
	}
	err := t.drv.Close()
	t.drv = nil
	return err
}
