package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/rgbtree/internal/diagnostics"
	"github.com/coreman2200/rgbtree/internal/effect"
	"github.com/coreman2200/rgbtree/internal/sequence"
	"github.com/coreman2200/rgbtree/internal/tree"
)

// Conductor is the only goroutine that touches the tree. Everything else talks to
// it through commands.
type Conductor struct {
	Tree *tree.Tree
	Reg  *effect.Registry
	Seq  *sequence.Player

	// Diag, when set, receives operator-facing events.
	Diag diagnostics.Sink

	cmds       chan Command
	active     effect.Effect
	frame      int
	brightness int
	failures   int

	mu     sync.RWMutex
	status Status
}

func NewConductor(t *tree.Tree, reg *effect.Registry, driver string) *Conductor {
	c := &Conductor{
		Tree:       t,
		Reg:        reg,
		cmds:       make(chan Command, 16),
		brightness: tree.MaxBrightness,
	}
	c.Seq = sequence.NewPlayer(sequence.Hooks{
		SetEffect: func(name string) {
			if err := c.setEffect(name); err != nil {
				log.Warn().Err(err).Str("effect", name).Msg("program clip skipped")
			}
		},
		Done: func() { c.diag(diagnostics.ProgramDone()) },
	})
	c.status = Status{Driver: driver, Brightness: c.brightness, Program: sequence.Idle, Effects: reg.List()}
	return c
}

// SetEffect selects the effect to play. Only call it before Run; afterwards send a
// Command.
func (c *Conductor) SetEffect(name string) error { return c.setEffect(name) }

// SetBrightness scales every frame by b/30. Only call it before Run.
func (c *Conductor) SetBrightness(b int) error { return c.setBrightness(b) }

// Commands is the conductor's inbox. Replies are discarded; use Do to wait for one.
func (c *Conductor) Commands() chan<- Command { return c.cmds }

// Submit queues cmd without waiting.
func (c *Conductor) Submit(cmd Command) error {
	select {
	case c.cmds <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do queues cmd and waits until the conductor has applied it.
func (c *Conductor) Do(ctx context.Context, cmd Command) error {
	cmd.reply = make(chan error, 1)
	select {
	case c.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the latest snapshot.
func (c *Conductor) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.status
	s.Effects = append([]string(nil), s.Effects...)
	return s
}

// Run plays until ctx is cancelled, committing one frame per tick, then blanks
// the strip.
func (c *Conductor) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 2
	}
	dt := time.Second / time.Duration(fps)
	c.update(func(s *Status) { s.FPS = fps })
	log.Info().Int("fps", fps).Str("effect", c.effectName()).Msg("conductor running")

	ticker := time.NewTicker(dt)
	defer ticker.Stop()
	c.tick(0)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("conductor stopping")
			if err := c.Tree.Off(); err != nil {
				return fmt.Errorf("blank on exit: %w", err)
			}
			return nil
		case cmd := <-c.cmds:
			err := c.apply(cmd)
			if err != nil {
				log.Warn().Err(err).Stringer("cmd", cmd).Msg("command rejected")
			} else {
				log.Debug().Stringer("cmd", cmd).Msg("command applied")
			}
			if cmd.reply != nil {
				cmd.reply <- err
			}
		case <-ticker.C:
			c.tick(dt.Seconds())
		}
	}
}

// Step plays a single frame dt seconds after the previous one. It is for driving
// the conductor by hand, never alongside Run.
func (c *Conductor) Step(dt float64) { c.tick(dt) }

// tick advances the program, draws the active effect and commits once.
func (c *Conductor) tick(dt float64) {
	c.Seq.Tick(dt)
	if c.active != nil {
		if err := c.active.Step(c.Tree, c.frame); err != nil {
			log.Error().Err(err).Str("effect", c.active.Name()).Msg("effect step")
			c.diag(diagnostics.EffectFailed(c.active.Name(), err))
		}
		c.frame++
		if err := c.dim(); err != nil {
			log.Error().Err(err).Msg("dim frame")
		}
	}
	err := c.Tree.Commit()
	if err != nil {
		c.failures++
		// log the first failure and every 10th after
		if c.failures == 1 || c.failures%10 == 0 {
			log.Error().Err(err).Int("failures", c.failures).Msg("commit")
			c.diag(diagnostics.CommitFailed(err, c.failures))
		}
	}
	clip, _ := c.Seq.Current()
	c.update(func(s *Status) {
		s.Commits = c.Tree.Commits()
		s.Failures = c.failures
		s.Program = c.Seq.State
		s.Clip = ""
		if c.Seq.State != sequence.Idle {
			s.Clip = clip.Name
		}
		if err != nil {
			s.LastError = err.Error()
		}
	})
}

// dim applies the global brightness on top of whatever the effect drew.
func (c *Conductor) dim() error {
	if c.brightness == tree.MaxBrightness {
		return nil
	}
	px := c.Tree.Frame()
	vals := make([]tree.Color, len(px))
	for i, p := range px {
		b := int(p.Brightness) * c.brightness / tree.MaxBrightness
		vals[i] = tree.BRGB(b, int(p.R), int(p.G), int(p.B))
	}
	return c.Tree.Set(tree.All(), vals...)
}

// apply checks every part of cmd before changing anything, so a rejected command
// leaves the conductor as it was.
func (c *Conductor) apply(cmd Command) error {
	if cmd.Empty() {
		return fmt.Errorf("empty command")
	}
	if cmd.Brightness != nil {
		if err := checkBrightness(*cmd.Brightness); err != nil {
			return err
		}
	}
	var next effect.Effect
	if cmd.Effect != "" {
		e, err := c.lookup(cmd.Effect)
		if err != nil {
			return err
		}
		next = e
	}
	switch cmd.Program {
	case "", ProgramStop, ProgramPause, ProgramResume:
	case ProgramStart:
		if !c.Seq.Loaded() {
			return fmt.Errorf("no program loaded")
		}
	default:
		return fmt.Errorf("unknown program action %q", cmd.Program)
	}

	if cmd.Brightness != nil {
		c.useBrightness(*cmd.Brightness)
	}
	if next != nil {
		if c.Seq.State != sequence.Idle {
			c.Seq.Stop()
		}
		c.use(next)
	}
	switch cmd.Program {
	case ProgramStart:
		c.Seq.Start()
	case ProgramStop:
		c.Seq.Stop()
	case ProgramPause:
		c.Seq.Pause()
	case ProgramResume:
		c.Seq.Resume()
	}
	c.update(func(s *Status) { s.Program = c.Seq.State })
	return nil
}

func (c *Conductor) setEffect(name string) error {
	e, err := c.lookup(name)
	if err != nil {
		return err
	}
	c.use(e)
	return nil
}

func (c *Conductor) lookup(name string) (effect.Effect, error) {
	e, err := c.Reg.Lookup(name)
	if err != nil {
		c.diag(diagnostics.UnknownEffect(name, c.Reg.List()))
		return nil, err
	}
	return e, nil
}

func (c *Conductor) use(e effect.Effect) {
	c.active = e
	c.frame = 0
	c.update(func(s *Status) { s.Effect = e.Name() })
}

func (c *Conductor) setBrightness(b int) error {
	if err := checkBrightness(b); err != nil {
		return err
	}
	c.useBrightness(b)
	return nil
}

func (c *Conductor) useBrightness(b int) {
	c.brightness = b
	c.update(func(s *Status) { s.Brightness = b })
}

func checkBrightness(b int) error {
	if b < 0 || b > tree.MaxBrightness {
		return fmt.Errorf("%w: brightness %d outside [0,%d]", tree.ErrValue, b, tree.MaxBrightness)
	}
	return nil
}

func (c *Conductor) effectName() string {
	if c.active == nil {
		return ""
	}
	return c.active.Name()
}

func (c *Conductor) update(fn func(*Status)) {
	c.mu.Lock()
	fn(&c.status)
	c.mu.Unlock()
}

func (c *Conductor) diag(d diagnostics.Diagnostic) {
	if c.Diag != nil {
		c.Diag(d)
	}
}
