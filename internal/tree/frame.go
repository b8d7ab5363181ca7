package tree

import (
	"fmt"
	"image"

	"github.com/coreman2200/rgbtree/internal/layout"
)

const (
	startFrameLen = 4
	endFrameLen   = 5
	pixelLen      = 4

	// FrameLen is the size of one encoded frame on the wire.
	FrameLen = startFrameLen + layout.Count*pixelLen + endFrameLen

	// brightnessMark sets the three high bits of each pixel's header byte.
	brightnessMark = 0xE0
	brightnessMask = 0x1F
)

// Encode appends the wire form of px to dst: a zero start frame, then for each pixel
// in chain order 0xE0|brightness, blue, green, red, then a zero end frame.
func Encode(dst []byte, px *[layout.Count]Pixel) []byte {
	for i := 0; i < startFrameLen; i++ {
		dst = append(dst, 0)
	}
	for _, p := range px {
		dst = append(dst, brightnessMark|p.Brightness, p.B, p.G, p.R)
	}
	for i := 0; i < endFrameLen; i++ {
		dst = append(dst, 0)
	}
	return dst
}

// DecodeFrame parses a frame produced by Encode.
func DecodeFrame(frame []byte) ([layout.Count]Pixel, error) {
	var px [layout.Count]Pixel
	if len(frame) != FrameLen {
		return px, fmt.Errorf("frame length %d, want %d", len(frame), FrameLen)
	}
	for i := 0; i < startFrameLen; i++ {
		if frame[i] != 0 {
			return px, fmt.Errorf("start frame byte %d is %#x", i, frame[i])
		}
	}
	for i := range px {
		s := startFrameLen + i*pixelLen
		hdr := frame[s]
		if hdr&^brightnessMask != brightnessMark {
			return px, fmt.Errorf("pixel %d header %#x lacks marker bits", i, hdr)
		}
		br := hdr & brightnessMask
		if br > MaxBrightness {
			return px, fmt.Errorf("pixel %d brightness %d outside [0,%d]", i, br, MaxBrightness)
		}
		px[i] = Pixel{Brightness: br, B: frame[s+1], G: frame[s+2], R: frame[s+3]}
	}
	return px, nil
}

// FrameImage renders a frame as a one-row image, one column per pixel.
func FrameImage(frame []byte) (image.Image, error) {
	px, err := DecodeFrame(frame)
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, layout.Count, 1))
	for x, p := range px {
		img.SetNRGBA(x, 0, p.NRGBA())
	}
	return img, nil
}
