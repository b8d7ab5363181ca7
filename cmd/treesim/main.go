// Command treesim plays an effect or a program on the console simulator for a fixed
// number of frames, then exits.
package main

import (
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/rgbtree/internal/app"
	"github.com/coreman2200/rgbtree/internal/config"
	"github.com/coreman2200/rgbtree/internal/effect"
	"github.com/coreman2200/rgbtree/internal/layout"
	"github.com/coreman2200/rgbtree/internal/led"
	"github.com/coreman2200/rgbtree/internal/led/fake"
	"github.com/coreman2200/rgbtree/internal/sequence"
	"github.com/coreman2200/rgbtree/internal/tree"
)

func main() {
	var (
		effectName = flag.String("effect", "swirl", "effect to play")
		programCfg = flag.String("program", "", "config.yaml whose program to play instead of -effect")
		frames     = flag.Int("frames", 10, "frames to play")
		fps        = flag.Int("fps", 2, "simulated frames per second")
		seed       = flag.Int64("seed", 1, "seed for the random effects")
		realtime   = flag.Bool("realtime", true, "sleep between frames")
		quiet      = flag.Bool("quiet", false, "record frames instead of drawing them")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	var drv led.Driver = led.OpenSim(layout.Count, tree.FrameImage)
	if *quiet {
		drv = &fake.Driver{}
	}
	t, err := tree.Open(func() (led.Driver, error) { return drv, nil })
	if err != nil {
		log.Fatal().Err(err).Msg("tree")
	}
	defer t.Close()

	c := app.NewConductor(t, effect.Builtins(rand.New(rand.NewSource(*seed))), "sim")
	if *programCfg != "" {
		cfg, err := config.Load(*programCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("program")
		}
		if err := c.Seq.Load(cfg.Program); err != nil {
			log.Fatal().Err(err).Msg("program")
		}
		c.Seq.Start()
	} else if err := c.SetEffect(*effectName); err != nil {
		log.Fatal().Err(err).Msg("effect")
	}

	dt := time.Second / time.Duration(max(1, *fps))
	for i := 0; i < *frames; i++ {
		c.Step(dt.Seconds())
		if c.Seq.Loaded() && c.Seq.State == sequence.Idle {
			break
		}
		if *realtime {
			time.Sleep(dt)
		}
	}
	s := c.Status()
	log.Info().
		Str("effect", s.Effect).
		Str("clip", s.Clip).
		Int("commits", s.Commits).
		Int("failures", s.Failures).
		Msg("done")
}
