package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"io"
)

// ErrNoFrames is returned when an animation is requested for zero images.
var ErrNoFrames = errors.New("imaging: no frames to assemble")

// AssembleGIF encodes the given JPEG frames, in order, into an animated
// GIF written to w. delay is the per-frame delay in hundredths of a
// second; values <= 0 default to 10 (ten frames per second). Frames are
// quantized to a fixed palette with Floyd-Steinberg dithering.
func AssembleGIF(frames [][]byte, w io.Writer, delay int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	if delay <= 0 {
		delay = 10
	}

	out := &gif.GIF{
		Image: make([]*image.Paletted, 0, len(frames)),
		Delay: make([]int, 0, len(frames)),
	}
	for i, frame := range frames {
		src, err := jpeg.Decode(bytes.NewReader(frame))
		if err != nil {
			return fmt.Errorf("decode frame %d: %w", i, err)
		}

		paletted := image.NewPaletted(src.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, src.Bounds(), src, src.Bounds().Min)

		out.Image = append(out.Image, paletted)
		out.Delay = append(out.Delay, delay)
	}

	if err := gif.EncodeAll(w, out); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}
