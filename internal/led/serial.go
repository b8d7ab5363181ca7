package led

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// Serial forwards frames to a USB-serial bridge (e.g. a microcontroller running a
// byte pump) which clocks them out to the strip unchanged.
type Serial struct {
	mu   sync.Mutex
	name string
	port io.WriteCloser
}

func OpenSerial(name string, baud int) (*Serial, error) {
	if name == "" {
		return nil, errors.New("serial port name required")
	}
	if baud <= 0 {
		baud = 115200
	}
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	return NewSerial(name, p), nil
}

// NewSerial wraps an already open port.
func NewSerial(name string, port io.WriteCloser) *Serial {
	return &Serial{name: name, port: port}
}

func (s *Serial) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return errors.New("serial closed")
	}
	n, err := s.port.Write(frame)
	if err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if n != len(frame) {
		return fmt.Errorf("serial write: short write %d/%d", n, len(frame))
	}
	return nil
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *Serial) String() string { return "serial{" + s.name + "}" }
