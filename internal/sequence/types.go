package sequence

// Clip plays one effect for a fixed time.
type Clip struct {
	Name      string  `json:"name" yaml:"name"`
	Effect    string  `json:"effect" yaml:"effect"`
	DurationS float64 `json:"duration_s" yaml:"duration_s"`
}

// Program is a full show of clips.
type Program struct {
	Loop  bool   `json:"loop,omitempty" yaml:"loop"`
	Clips []Clip `json:"clips" yaml:"clips"`
}

// PlayerState enumerates sequencer states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
	Paused  PlayerState = "paused"
)

// Hooks are callbacks into whoever owns the effects.
type Hooks struct {
	// SetEffect switches the active effect immediately.
	SetEffect func(name string)
	// Done fires once when a non-looping program runs out.
	Done func()
}

// Player owns the current Program timeline and uses Hooks to drive the conductor.
type Player struct {
	State PlayerState

	prog  Program
	nowS  float64 // position within program
	idx   int     // current clip index
	hooks Hooks
}
