package led

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes one encoded frame to hardware in a single transfer. The frame is
	// only valid for the duration of the call.
	Write(frame []byte) error
	// Close releases resources.
	Close() error
}

// Opener acquires a Driver. Implementations release anything they opened when they
// fail partway.
type Opener func() (Driver, error)
