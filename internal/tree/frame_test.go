package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/rgbtree/internal/layout"
)

func TestEncodeLayout(t *testing.T) {
	var px [layout.Count]Pixel
	px[0] = Pixel{Brightness: 30, R: 0x11, G: 0x22, B: 0x33}
	px[24] = Pixel{Brightness: 1, R: 0xAA}

	f := Encode(nil, &px)
	require.Len(t, f, FrameLen)
	assert.Equal(t, 109, FrameLen)

	assert.Equal(t, []byte{0, 0, 0, 0}, f[:4])
	assert.Equal(t, []byte{0xFE, 0x33, 0x22, 0x11}, f[4:8], "brightness header then BGR")
	assert.Equal(t, []byte{0xE0, 0, 0, 0}, f[8:12], "off pixel keeps the marker bits")
	assert.Equal(t, []byte{0xE1, 0, 0, 0xAA}, f[100:104])
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, f[104:])
}

func TestEncodeReusesBuffer(t *testing.T) {
	var px [layout.Count]Pixel
	buf := make([]byte, 0, FrameLen)
	a := Encode(buf, &px)
	px[3].R = 9
	b := Encode(a[:0], &px)
	assert.Same(t, &a[0], &b[0])
	assert.Equal(t, byte(9), b[4+3*4+3])
}

func TestDecodeFrameRoundTrip(t *testing.T) {
	var px [layout.Count]Pixel
	for i := range px {
		px[i] = Pixel{Brightness: uint8(i), R: uint8(i * 3), G: uint8(i * 5), B: uint8(i * 7)}
	}
	got, err := DecodeFrame(Encode(nil, &px))
	require.NoError(t, err)
	assert.Equal(t, px, got)
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	var px [layout.Count]Pixel
	good := Encode(nil, &px)

	_, err := DecodeFrame(good[:FrameLen-1])
	assert.Error(t, err)

	bad := append([]byte(nil), good...)
	bad[1] = 1
	_, err = DecodeFrame(bad)
	assert.Error(t, err, "start frame")

	bad = append([]byte(nil), good...)
	bad[4] = 0x1F
	_, err = DecodeFrame(bad)
	assert.Error(t, err, "marker bits")

	bad = append([]byte(nil), good...)
	bad[4] = 0xFF
	_, err = DecodeFrame(bad)
	assert.Error(t, err, "brightness 31")
}

func TestFrameImage(t *testing.T) {
	var px [layout.Count]Pixel
	px[2] = Pixel{Brightness: MaxBrightness, G: 200}
	px[3] = Pixel{Brightness: 15, R: 200}

	img, err := FrameImage(Encode(nil, &px))
	require.NoError(t, err)
	assert.Equal(t, layout.Count, img.Bounds().Dx())

	_, g, _, _ := img.At(2, 0).RGBA()
	assert.Equal(t, uint32(200)*0x101, g)
	r, _, _, _ := img.At(3, 0).RGBA()
	assert.Equal(t, uint32(100)*0x101, r)
}
