package tree

import (
	"fmt"
	"image/color"
)

const (
	// MaxBrightness is the top of the per-pixel brightness scale.
	MaxBrightness = 30
	// MaxChannel is the top of each colour channel.
	MaxChannel = 255
)

// Pixel is the buffered state of one LED.
type Pixel struct {
	Brightness uint8 `json:"brightness"`
	R          uint8 `json:"r"`
	G          uint8 `json:"g"`
	B          uint8 `json:"b"`
}

// Off reports whether the pixel emits nothing.
func (p Pixel) Off() bool {
	return p.Brightness == 0 || (p.R == 0 && p.G == 0 && p.B == 0)
}

// Color returns the pixel in its four-component write form.
func (p Pixel) Color() Color {
	return Color{int(p.Brightness), int(p.R), int(p.G), int(p.B)}
}

// NRGBA approximates what the pixel looks like, scaling the channels by brightness.
func (p Pixel) NRGBA() color.NRGBA {
	s := float64(p.Brightness) / MaxBrightness
	return color.NRGBA{
		R: uint8(float64(p.R) * s),
		G: uint8(float64(p.G) * s),
		B: uint8(float64(p.B) * s),
		A: 255,
	}
}

// Color is a value as written by callers: [r, g, b], which lights the pixel at full
// brightness, or [brightness, r, g, b].
type Color []int

func RGB(r, g, b int) Color { return Color{r, g, b} }

func BRGB(brightness, r, g, b int) Color { return Color{brightness, r, g, b} }

// pixel validates c. Out-of-range fields are rejected, never clamped.
func (c Color) pixel() (Pixel, error) {
	var br, r, g, b int
	switch len(c) {
	case 3:
		br, r, g, b = MaxBrightness, c[0], c[1], c[2]
	case 4:
		br, r, g, b = c[0], c[1], c[2], c[3]
	default:
		return Pixel{}, fmt.Errorf("%w: colour needs 3 or 4 components, got %d", ErrValue, len(c))
	}
	if br < 0 || br > MaxBrightness {
		return Pixel{}, fmt.Errorf("%w: brightness %d outside [0,%d]", ErrValue, br, MaxBrightness)
	}
	for _, ch := range [...]struct {
		name string
		v    int
	}{{"red", r}, {"green", g}, {"blue", b}} {
		if ch.v < 0 || ch.v > MaxChannel {
			return Pixel{}, fmt.Errorf("%w: %s %d outside [0,%d]", ErrValue, ch.name, ch.v, MaxChannel)
		}
	}
	return Pixel{Brightness: uint8(br), R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}
