package app

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/rgbtree/internal/config"
	"github.com/coreman2200/rgbtree/internal/layout"
	"github.com/coreman2200/rgbtree/internal/led"
	"github.com/coreman2200/rgbtree/internal/tree"
)

// OpenDriver opens the transport named by cfg.Driver.
func OpenDriver(cfg *config.Config) (led.Driver, error) {
	switch cfg.Driver {
	case "spi", "":
		speed := led.DefaultSPISpeed
		if cfg.SPI.SpeedHz > 0 {
			speed = physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz
		}
		s, err := led.OpenSPI(cfg.SPI.Port, speed)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "serial":
		s, err := led.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sim":
		return led.OpenSim(layout.Count, tree.FrameImage), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

// TapOpener opens cfg's driver when the tree asks for it and wraps it in a Tap,
// which is handed to onOpen. With fallback set, a hardware driver that fails to
// open is replaced by the simulator and cfg.Driver is updated to match.
func TapOpener(cfg *config.Config, fallback bool, onOpen func(*Tap)) led.Opener {
	return func() (led.Driver, error) {
		d, err := OpenDriver(cfg)
		if err != nil && fallback && cfg.Driver != "sim" {
			log.Warn().Err(err).
				Str("driver", cfg.Driver).
				Str("spi", cfg.SPI.Port).
				Str("serial", cfg.Serial.Port).
				Msg("driver init failed; falling back to SIM")
			cfg.Driver = "sim"
			d, err = OpenDriver(cfg)
		}
		if err != nil {
			return nil, err
		}
		tap := NewTap(d)
		if onOpen != nil {
			onOpen(tap)
		}
		return tap, nil
	}
}

// Tap passes frames through to a driver and hands a copy of every frame the driver
// accepted to its subscribers.
type Tap struct {
	drv led.Driver

	mu   sync.RWMutex
	subs []func(frame []byte)
}

func NewTap(d led.Driver) *Tap { return &Tap{drv: d} }

// Subscribe registers fn for future frames. fn runs on the writer's goroutine and
// owns the slice it is given.
func (t *Tap) Subscribe(fn func(frame []byte)) {
	t.mu.Lock()
	t.subs = append(t.subs, fn)
	t.mu.Unlock()
}

func (t *Tap) Write(frame []byte) error {
	if err := t.drv.Write(frame); err != nil {
		return err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, fn := range t.subs {
		fn(append([]byte(nil), frame...))
	}
	return nil
}

func (t *Tap) Close() error { return t.drv.Close() }

// Opener lets a Tap be handed straight to tree.Open.
func (t *Tap) Opener() led.Opener {
	return func() (led.Driver, error) { return t, nil }
}

func (t *Tap) String() string {
	if s, ok := t.drv.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", t.drv)
}
