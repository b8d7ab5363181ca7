package layout

import "fmt"

const (
	// Count is the number of pixels on the tree.
	Count = 25
	// Layers counts the height tiers, bottom (0) to star (3).
	Layers = 4
	// Segments counts the vanes around the trunk.
	Segments = 8
	// StarLayer is the apex layer; its single pixel is shared by every segment.
	StarLayer = Layers - 1
	// Star is the flat index of the star pixel.
	Star = 3
)

// wiring maps (layer, segment) to the flat index along the daisy chain.
var wiring = [Layers][Segments]int{
	{24, 19, 7, 0, 16, 15, 6, 12},
	{23, 20, 8, 1, 17, 14, 5, 11},
	{22, 21, 9, 2, 18, 13, 4, 10},
	{Star, Star, Star, Star, Star, Star, Star, Star},
}

// Index maps layer,segment -> flat LED index (0..Count-1).
// The segment is ignored on the star layer but must still be in range.
func Index(layer, segment int) (int, error) {
	if layer < 0 || layer >= Layers {
		return 0, fmt.Errorf("layer %d out of range [0,%d)", layer, Layers)
	}
	if segment < 0 || segment >= Segments {
		return 0, fmt.Errorf("segment %d out of range [0,%d)", segment, Segments)
	}
	return wiring[layer][segment], nil
}

// Column returns the branch pixels of a segment, bottom to top. The star is not part
// of any column.
func Column(segment int) ([]int, error) {
	if segment < 0 || segment >= Segments {
		return nil, fmt.Errorf("segment %d out of range [0,%d)", segment, Segments)
	}
	out := make([]int, 0, StarLayer)
	for l := 0; l < StarLayer; l++ {
		out = append(out, wiring[l][segment])
	}
	return out, nil
}

// Ring returns the pixels of a layer in segment order. The star layer is a single
// pixel.
func Ring(layer int) ([]int, error) {
	if layer < 0 || layer >= Layers {
		return nil, fmt.Errorf("layer %d out of range [0,%d)", layer, Layers)
	}
	if layer == StarLayer {
		return []int{Star}, nil
	}
	out := make([]int, Segments)
	copy(out, wiring[layer][:])
	return out, nil
}

// Locate is the inverse of Index. The star reports layer 3, segment 0.
func Locate(index int) (layer, segment int, err error) {
	if index < 0 || index >= Count {
		return 0, 0, fmt.Errorf("index %d out of range [0,%d)", index, Count)
	}
	return locations[index].layer, locations[index].segment, nil
}

type location struct{ layer, segment int }

var locations = func() [Count]location {
	var out [Count]location
	for l := Layers - 1; l >= 0; l-- {
		for s := Segments - 1; s >= 0; s-- {
			out[wiring[l][s]] = location{layer: l, segment: s}
		}
	}
	return out
}()
