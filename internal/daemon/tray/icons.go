package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/slacktray/slacktray/internal/readstate"
)

const iconSize = 22

var statusColors = map[readstate.Status]color.NRGBA{
	readstate.StatusGreen:  {R: 0x2e, G: 0xb6, B: 0x7d, A: 0xff},
	readstate.StatusYellow: {R: 0xec, G: 0xb2, B: 0x2e, A: 0xff},
	readstate.StatusRed:    {R: 0xe0, G: 0x1e, B: 0x5a, A: 0xff},
}

var (
	iconMu    sync.Mutex
	iconCache = make(map[readstate.Status][]byte)
)

// iconFor returns PNG bytes for a filled disc in the status colour.
func iconFor(s readstate.Status) []byte {
	iconMu.Lock()
	defer iconMu.Unlock()

	if data, ok := iconCache[s]; ok {
		return data
	}
	c, ok := statusColors[s]
	if !ok {
		c = statusColors[readstate.StatusGreen]
	}
	data := renderDisc(iconSize, c)
	iconCache[s] = data
	return data
}

func renderDisc(size int, c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	center := float64(size-1) / 2
	r2 := (center - 1) * (center - 1)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy <= r2 {
				img.SetNRGBA(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	// Encoding an in-memory NRGBA image cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
