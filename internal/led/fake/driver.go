package fake

import (
	"sync"

	"github.com/coreman2200/rgbtree/internal/led"
)

// Driver records every frame written to it, useful for headless tests.
type Driver struct {
	mu sync.Mutex

	// Err, when set, is returned by Write and nothing is recorded.
	Err error
	// OpenErr, when set, makes Opener fail.
	OpenErr error

	Attempts int
	Frames   [][]byte
	Closed   int
}

// Opener hands this driver to tree.Open.
func (d *Driver) Opener() led.Opener {
	return func() (led.Driver, error) {
		if d.OpenErr != nil {
			return nil, d.OpenErr
		}
		return d, nil
	}
}

func (d *Driver) Write(frame []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Attempts++
	if d.Err != nil {
		return d.Err
	}
	d.Frames = append(d.Frames, append([]byte(nil), frame...))
	return nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed++
	return nil
}

// Count is the number of frames successfully written.
func (d *Driver) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Frames)
}

// Last returns a copy of the most recent frame, or nil.
func (d *Driver) Last() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Frames) == 0 {
		return nil
	}
	return append([]byte(nil), d.Frames[len(d.Frames)-1]...)
}

// Fail sets or clears the Write error.
func (d *Driver) Fail(err error) {
	d.mu.Lock()
	d.Err = err
	d.mu.Unlock()
}
