// Package frame defines the fixed-size payload geometry shared by the
// capture and broadcast layers. A channel's frame size is decided once,
// from sensor geometry, and never changes for the channel's lifetime.
package frame

import (
	"encoding/binary"
	"fmt"
)

// Stream names. Each maps to one broadcast channel on its own TCP port.
const (
	StreamColor    = "color"
	StreamDepth    = "depth"
	StreamInfrared = "infrared"
	StreamAudio    = "audio"
)

// Bytes per pixel for the video-type streams.
const (
	ColorBytesPerPixel = 4 // BGRA, one byte per channel
	DepthBytesPerPixel = 2 // 16-bit sample, converted from the wider native sample
)

// Geometry describes the pixel layout of one video-type stream.
type Geometry struct {
	Width         int
	Height        int
	BytesPerPixel int
}

// Size returns the fixed payload size in bytes for one frame.
func (g Geometry) Size() int {
	return g.Width * g.Height * g.BytesPerPixel
}

// Valid reports whether the geometry describes a non-empty frame.
func (g Geometry) Valid() bool {
	return g.Width > 0 && g.Height > 0 && g.BytesPerPixel > 0
}

// Color returns the BGRA geometry for a color stream.
func Color(width, height int) Geometry {
	return Geometry{Width: width, Height: height, BytesPerPixel: ColorBytesPerPixel}
}

// Depth16 returns the 16-bit sample geometry used by depth and infrared streams.
func Depth16(width, height int) Geometry {
	return Geometry{Width: width, Height: height, BytesPerPixel: DepthBytesPerPixel}
}

// AudioFormat describes the provisional fixed-size audio block contract.
// No payload is materialized for audio yet; the block size only reserves
// the channel's frame size for future capture adapters.
type AudioFormat struct {
	SampleRate     int
	BytesPerSample int
	BlockSeconds   int
}

// BlockSize returns the fixed audio payload size in bytes.
func (a AudioFormat) BlockSize() int {
	return a.SampleRate * a.BytesPerSample * a.BlockSeconds
}

// Valid reports whether the format describes a non-empty block.
func (a AudioFormat) Valid() bool {
	return a.SampleRate > 0 && a.BytesPerSample > 0 && a.BlockSeconds > 0
}

// Pack16 writes 16-bit samples into dst, two bytes per sample, little-endian.
// It is used to narrow wider native depth/infrared samples into wire form.
// dst must be exactly twice the length of src.
func Pack16(dst []byte, src []uint16) error {
	if len(dst) != 2*len(src) {
		return fmt.Errorf("pack16: dst size %d does not fit %d samples", len(dst), len(src))
	}
	for i, s := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], s)
	}
	return nil
}
