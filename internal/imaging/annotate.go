package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Caption burns a text label into the top-left corner of JPEG images. It
// implements the fetcher's Annotator interface.
type Caption struct {
	// Quality is the JPEG re-encode quality.
	// Default: 90
	Quality int
}

// NewCaption returns a Caption with default settings.
func NewCaption() *Caption {
	return &Caption{Quality: 90}
}

// Annotate decodes img, draws label in the top-left corner (white text
// over a one-pixel dark shadow for legibility on cloud-white areas), and
// re-encodes as JPEG.
func (c *Caption) Annotate(img []byte, label string) ([]byte, error) {
	src, err := jpeg.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)

	if label != "" {
		origin := dst.Bounds().Min.Add(image.Pt(10, 10+basicfont.Face7x13.Ascent))
		drawString(dst, label, origin.Add(image.Pt(1, 1)), color.Black)
		drawString(dst, label, origin, color.White)
	}

	quality := c.Quality
	if quality <= 0 {
		quality = 90
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func drawString(dst draw.Image, s string, at image.Point, col color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(at.X, at.Y),
	}
	d.DrawString(s)
}
