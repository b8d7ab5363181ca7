package layout

import "math"

// Vec3 is a normalised position: X,Z in [-1,1] around the trunk, Y in [0,1] up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Positions builds approximate world positions for each flat index, for previews.
// Lower layers sit further out from the trunk; the star sits on the axis.
func Positions() []Vec3 {
	out := make([]Vec3, Count)
	for i := range out {
		l, s, _ := Locate(i)
		y := float64(l) / float64(StarLayer)
		if l == StarLayer {
			out[i] = Vec3{Y: y}
			continue
		}
		r := 1.0 - float64(l)/float64(Layers)
		a := 2 * math.Pi * float64(s) / float64(Segments)
		out[i] = Vec3{X: r * math.Cos(a), Y: y, Z: r * math.Sin(a)}
	}
	return out
}
