package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/rgbtree/internal/sequence"
)

func write(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoadOverlaysDefaults(t *testing.T) {
	p := write(t, `
driver: sim
fps: 10
effect: sparkle
program:
  loop: true
  clips:
    - {name: a, effect: swirl, duration_s: 5}
    - {name: b, effect: random, duration_s: 2.5}
mqtt:
  broker: localhost:1883
`)
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "sim", c.Driver)
	assert.Equal(t, 10, c.FPS)
	assert.Equal(t, 30, c.Brightness, "default kept")
	assert.Equal(t, 2000000, c.SPI.SpeedHz, "default kept")
	assert.Equal(t, "rgbtree", c.MQTT.TopicPrefix)
	require.Len(t, c.Program.Clips, 2)
	assert.Equal(t, sequence.Clip{Name: "b", Effect: "random", DurationS: 2.5}, c.Program.Clips[1])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"driver":      "driver: pwm\n",
		"fps":         "fps: 0\n",
		"brightness":  "brightness: 31\n",
		"serial port": "driver: serial\n",
		"clip effect": "program: {clips: [{name: x, duration_s: 1}]}\n",
		"clip length": "program: {clips: [{name: x, effect: swirl}]}\n",
		"yaml":        "fps: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(write(t, body))
			assert.Error(t, err)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := Default()
	c.Driver = "serial"
	c.Serial.Port = "/dev/ttyACM0"
	c.Program = sequence.Program{Loop: true, Clips: []sequence.Clip{{Name: "a", Effect: "spin", DurationS: 3}}}

	p := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(p, &c))
	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, c, *got)
}
