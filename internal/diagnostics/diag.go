// Package diagnostics describes operator-facing events raised while the tree runs.
package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
	At             time.Time      `json:"at"`
}

// Sink receives diagnostics on the conductor goroutine. It must not block; sinks
// that do I/O queue the work, as preview.Hub.PushDiag does.
type Sink func(Diagnostic)

// CommitFailed reports a frame the strip did not accept.
func CommitFailed(err error, failures int) Diagnostic {
	return Diagnostic{
		Severity: Err,
		Code:     "COMMIT.FAILED",
		Summary:  "Frame was not transmitted",
		Detail:   err.Error(),
		LikelyCauses: []string{
			"SPI disabled or owned by another process",
			"serial bridge unplugged",
		},
		SuggestedFixes: []string{
			"enable SPI (raspi-config) and check /dev/spidev0.0",
			"run with -driver sim to check the effect without hardware",
		},
		Evidence: map[string]any{"failures": failures},
		At:       time.Now(),
	}
}

func UnknownEffect(name string, known []string) Diagnostic {
	return Diagnostic{
		Severity: Warn,
		Code:     "EFFECT.UNKNOWN",
		Summary:  "Unknown effect name",
		Detail:   name,
		Evidence: map[string]any{"name": name, "known": known},
		At:       time.Now(),
	}
}

func EffectFailed(name string, err error) Diagnostic {
	return Diagnostic{
		Severity: Err,
		Code:     "EFFECT.FAILED",
		Summary:  "Effect could not draw its frame",
		Detail:   err.Error(),
		Evidence: map[string]any{"effect": name},
		At:       time.Now(),
	}
}

func ProgramDone() Diagnostic {
	return Diagnostic{Severity: Info, Code: "PROGRAM.DONE", Summary: "Program complete", At: time.Now()}
}
