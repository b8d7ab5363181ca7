package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/rgbtree/internal/config"
	"github.com/coreman2200/rgbtree/internal/led"
	"github.com/coreman2200/rgbtree/internal/led/fake"
	"github.com/coreman2200/rgbtree/internal/tree"
)

func TestTapPublishesAcceptedFrames(t *testing.T) {
	drv := &fake.Driver{}
	tap := NewTap(drv)
	var got [][]byte
	tap.Subscribe(func(f []byte) { got = append(got, f) })

	tr, err := tree.Open(tap.Opener())
	require.NoError(t, err)
	require.NoError(t, tr.Fill(tree.All(), tree.RGB(1, 2, 3)))
	require.NoError(t, tr.Commit())

	require.Len(t, got, 1)
	assert.Equal(t, 1, drv.Count(), "one write reaches the driver")
	assert.Equal(t, drv.Last(), got[0])

	got[0][5] = 0xAA
	assert.NotEqual(t, got[0], drv.Last(), "subscribers get their own copy")

	drv.Fail(errors.New("nope"))
	assert.ErrorIs(t, tr.Commit(), tree.ErrTransport)
	assert.Len(t, got, 1, "failed frames are not published")

	require.NoError(t, tr.Close())
	assert.Equal(t, 1, drv.Closed)
}

func TestTapString(t *testing.T) {
	assert.Equal(t, "*fake.Driver", NewTap(&fake.Driver{}).String())
	assert.Equal(t, "serial{x}", NewTap(led.NewSerial("x", nil)).String())
}

func TestOpenDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = "sim"
	d, err := OpenDriver(&cfg)
	require.NoError(t, err)
	assert.IsType(t, &led.Sim{}, d)

	cfg.Driver = "pwm"
	_, err = OpenDriver(&cfg)
	assert.Error(t, err)

	cfg.Driver = "serial"
	cfg.Serial.Port = ""
	_, err = OpenDriver(&cfg)
	assert.Error(t, err)
}

func TestTapOpener(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = "serial"
	cfg.Serial.Port = ""

	var tap *Tap
	_, err := tree.Open(TapOpener(&cfg, false, func(tp *Tap) { tap = tp }))
	assert.ErrorIs(t, err, tree.ErrConfiguration)
	assert.Nil(t, tap)
	assert.Equal(t, "serial", cfg.Driver)

	tr, err := tree.Open(TapOpener(&cfg, true, func(tp *Tap) { tap = tp }))
	require.NoError(t, err)
	require.NotNil(t, tap)
	assert.Equal(t, "sim", cfg.Driver)
	assert.Equal(t, "sim", tap.String())
	require.NoError(t, tr.Close())
}
