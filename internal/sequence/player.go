package sequence

import (
	"errors"
	"fmt"
	"math"
)

// NewPlayer constructs a Player with provided hooks.
func NewPlayer(h Hooks) *Player {
	return &Player{State: Idle, hooks: h}
}

// Load replaces the current program. Resets time and state to Idle.
func (p *Player) Load(prog Program) error {
	if len(prog.Clips) == 0 {
		return errors.New("program has no clips")
	}
	for i, c := range prog.Clips {
		if c.Effect == "" {
			return fmt.Errorf("clip %d has no effect", i)
		}
		if c.DurationS <= 0 {
			return fmt.Errorf("clip %d (%s) needs a positive duration", i, c.Effect)
		}
	}
	p.prog = prog
	p.nowS = 0
	p.idx = 0
	p.State = Idle
	return nil
}

// Loaded reports whether a program is available to Start.
func (p *Player) Loaded() bool { return len(p.prog.Clips) > 0 }

// Start moves to Running and switches to the current clip's effect.
func (p *Player) Start() {
	if p.State == Running || !p.Loaded() {
		return
	}
	p.State = Running
	p.setEffect()
}

// Pause pauses playback.
func (p *Player) Pause() {
	if p.State == Running {
		p.State = Paused
	}
}

// Resume resumes playback.
func (p *Player) Resume() {
	if p.State == Paused {
		p.State = Running
	}
}

// Stop stops and rewinds to the first clip.
func (p *Player) Stop() {
	p.State = Idle
	p.nowS = 0
	p.idx = 0
}

// Seek jumps to absolute program time t, clamped into [0, total).
func (p *Player) Seek(t float64) {
	if !p.Loaded() {
		return
	}
	if t < 0 {
		t = 0
	}
	if total := p.totalDuration(); t >= total {
		t = math.Nextafter(total, -1)
	}
	acc := 0.0
	for i, c := range p.prog.Clips {
		if t < acc+c.DurationS {
			p.idx = i
			break
		}
		acc += c.DurationS
	}
	p.nowS = t
	if p.State != Idle {
		p.setEffect()
	}
}

// Tick advances the sequencer by dt seconds, moving on through as many clips as
// dt covers.
func (p *Player) Tick(dt float64) {
	if p.State != Running || dt <= 0 {
		return
	}
	p.nowS += dt
	for p.State == Running {
		clip, localT := p.Current()
		if localT < clip.DurationS {
			return
		}
		p.advanceClip()
	}
}

// Current returns the active clip and the time spent in it.
func (p *Player) Current() (Clip, float64) {
	if !p.Loaded() {
		return Clip{}, 0
	}
	acc := 0.0
	for i := 0; i < p.idx; i++ {
		acc += p.prog.Clips[i].DurationS
	}
	return p.prog.Clips[p.idx], p.nowS - acc
}

// Position is the time into the program in seconds.
func (p *Player) Position() float64 { return p.nowS }

func (p *Player) totalDuration() float64 {
	total := 0.0
	for _, c := range p.prog.Clips {
		total += c.DurationS
	}
	return total
}

func (p *Player) nextIndex() int {
	ni := p.idx + 1
	if ni >= len(p.prog.Clips) {
		if p.prog.Loop {
			return 0
		}
		return -1
	}
	return ni
}

func (p *Player) advanceClip() {
	next := p.nextIndex()
	if next == -1 {
		p.State = Idle
		p.nowS = p.totalDuration()
		if p.hooks.Done != nil {
			p.hooks.Done()
		}
		return
	}
	if next == 0 {
		p.nowS -= p.totalDuration()
	}
	p.idx = next
	p.setEffect()
}

func (p *Player) setEffect() {
	if p.hooks.SetEffect != nil {
		p.hooks.SetEffect(p.prog.Clips[p.idx].Effect)
	}
}
