package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/rgbtree/internal/app"
	"github.com/coreman2200/rgbtree/internal/config"
	"github.com/coreman2200/rgbtree/internal/control"
	"github.com/coreman2200/rgbtree/internal/diagnostics"
	"github.com/coreman2200/rgbtree/internal/effect"
	"github.com/coreman2200/rgbtree/internal/preview"
	"github.com/coreman2200/rgbtree/internal/sequence"
	"github.com/coreman2200/rgbtree/internal/tree"
)

func main() {
	// ---- Flags (override config.yaml when set) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		driver     = flag.String("driver", "", "driver: spi | serial | sim")
		fps        = flag.Int("fps", 0, "frames per second")
		effectName = flag.String("effect", "", "effect to play")
		addr       = flag.String("addr", "", "preview listen address; enables the preview")
		debug      = flag.Bool("debug", false, "debug logging")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		list       = flag.Bool("list", false, "list effects and exit")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	reg := effect.Builtins(rand.New(rand.NewSource(time.Now().UnixNano())))
	if *list {
		for _, n := range reg.List() {
			os.Stdout.WriteString(n + "\n")
		}
		return
	}

	// ---- Config (optional) ----
	cfg := config.Default()
	if c, err := config.Load(*configPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", *configPath).Msg("no config file; using defaults and flags")
		} else {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config")
		}
	} else {
		cfg = *c
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *simOnly {
		cfg.Driver = "sim"
	}
	if *fps > 0 {
		cfg.FPS = *fps
	}
	if *effectName != "" {
		cfg.Effect = *effectName
	}
	if *addr != "" {
		cfg.Preview.Enabled = true
		cfg.Preview.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if *debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	// ---- Driver: fall back to the simulator when hardware is missing ----
	var tap *app.Tap
	t, err := tree.Open(app.TapOpener(&cfg, true, func(tp *app.Tap) { tap = tp }))
	if err != nil {
		log.Fatal().Err(err).Msg("tree")
	}
	if err := t.Off(); err != nil {
		log.Error().Err(err).Msg("blank tree")
	}

	// ---- Conductor ----
	cond := app.NewConductor(t, reg, tap.String())
	if err := cond.SetEffect(cfg.Effect); err != nil {
		log.Warn().Err(err).Strs("known", reg.List()).Msg("effect; using swirl")
		_ = cond.SetEffect("swirl")
	}
	if err := cond.SetBrightness(cfg.Brightness); err != nil {
		log.Fatal().Err(err).Msg("brightness")
	}
	if err := loadProgram(cond, cfg.Program, *effectName); err != nil {
		log.Fatal().Err(err).Msg("program")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sinks []diagnostics.Sink
	sinks = append(sinks, func(d diagnostics.Diagnostic) {
		log.Debug().Str("code", d.Code).Str("detail", d.Detail).Msg(d.Summary)
	})

	// ---- Preview ----
	var (
		srv *http.Server
		hub *preview.Hub
	)
	if cfg.Preview.Enabled {
		hub = preview.NewHub(cond)
		tap.Subscribe(hub.PublishFrame)
		sinks = append(sinks, hub.PushDiag)
		srv = &http.Server{
			Addr:         cfg.Preview.Addr,
			Handler:      hub.Routes(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.Preview.Addr).Msg("preview server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("preview server crashed")
			}
		}()
	}
	cond.Diag = func(d diagnostics.Diagnostic) {
		for _, s := range sinks {
			s(d)
		}
	}

	// ---- MQTT ----
	var mq *control.Handler
	if cfg.MQTT.Broker != "" {
		client, err := control.Connect(cfg.MQTT)
		if err != nil {
			log.Error().Err(err).Msg("mqtt disabled")
		} else {
			defer client.Disconnect(250)
			mq = control.NewHandler(cfg.MQTT, client, cond)
			if err := mq.Start(ctx); err != nil {
				log.Error().Err(err).Msg("mqtt control")
				mq = nil
			}
		}
	}

	log.Info().Str("driver", tap.String()).Int("fps", cfg.FPS).Str("effect", cfg.Effect).Msg("rgbtree running")
	if err := cond.Run(ctx, cfg.FPS); err != nil {
		log.Error().Err(err).Msg("conductor")
	}

	// ---- Shutdown, reverse order ----
	if mq != nil {
		mq.Stop()
	}
	if srv != nil {
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(shutdown)
		cancel()
		hub.Close()
	}
	if err := t.Close(); err != nil {
		log.Error().Err(err).Msg("close driver")
	}
	log.Info().Msg("bye")
}

// loadProgram loads p and starts it, unless an effect was asked for on the command
// line; the program then waits for a start command.
func loadProgram(cond *app.Conductor, p sequence.Program, effectFlag string) error {
	if len(p.Clips) == 0 {
		return nil
	}
	if err := cond.Seq.Load(p); err != nil {
		return err
	}
	if effectFlag != "" {
		log.Info().Str("effect", effectFlag).Int("clips", len(p.Clips)).
			Msg("program loaded but not started; -effect given")
		return nil
	}
	cond.Seq.Start()
	return nil
}
