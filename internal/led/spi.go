package led

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// DefaultSPISpeed is well inside what APA102 pixels accept over a short tree harness.
const DefaultSPISpeed = 2 * physic.MegaHertz

// SPI writes frames to a periph.io SPI port in mode 0, 8 bits per word.
type SPI struct {
	mu   sync.Mutex
	port spi.PortCloser
	conn spi.Conn
}

// OpenSPI initialises the host drivers and opens the named port ("" picks the
// first registered one, e.g. /dev/spidev0.0).
func OpenSPI(name string, speed physic.Frequency) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", name, err)
	}
	return NewSPI(p, speed)
}

// NewSPI connects to an already opened port. The port is closed if the connection
// cannot be made.
func NewSPI(p spi.PortCloser, speed physic.Frequency) (*SPI, error) {
	if speed <= 0 {
		speed = DefaultSPISpeed
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("spi connect: %w", err)
	}
	return &SPI{port: p, conn: c}, nil
}

// Write sends the whole frame in one transaction.
func (s *SPI) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return errors.New("SPI closed")
	}
	if err := s.conn.Tx(frame, nil); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.conn = nil
	return err
}

func (s *SPI) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return "spi{closed}"
	}
	return "spi{" + s.port.String() + "}"
}
