package app

import (
	"errors"
	"fmt"

	"github.com/coreman2200/rgbtree/internal/sequence"
)

// Program actions accepted in Command.Program.
const (
	ProgramStart  = "start"
	ProgramStop   = "stop"
	ProgramPause  = "pause"
	ProgramResume = "resume"
)

var ErrQueueFull = errors.New("command queue full")

// Command changes what the conductor plays. Empty fields are left alone.
type Command struct {
	Effect     string `json:"effect,omitempty"`
	Brightness *int   `json:"brightness,omitempty"`
	Program    string `json:"program,omitempty"`

	reply chan error
}

func (c Command) Empty() bool {
	return c.Effect == "" && c.Brightness == nil && c.Program == ""
}

func (c Command) String() string {
	s := "cmd{"
	if c.Effect != "" {
		s += " effect=" + c.Effect
	}
	if c.Brightness != nil {
		s += fmt.Sprintf(" brightness=%d", *c.Brightness)
	}
	if c.Program != "" {
		s += " program=" + c.Program
	}
	return s + " }"
}

// Status is a snapshot of the conductor, safe to share across goroutines.
type Status struct {
	Driver     string               `json:"driver"`
	Effect     string               `json:"effect"`
	Brightness int                  `json:"brightness"`
	FPS        int                  `json:"fps"`
	Program    sequence.PlayerState `json:"program"`
	Clip       string               `json:"clip,omitempty"`
	Commits    int                  `json:"commits"`
	Failures   int                  `json:"failures"`
	LastError  string               `json:"last_error,omitempty"`
	Effects    []string             `json:"effects"`
}
