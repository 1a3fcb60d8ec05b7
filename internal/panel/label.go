package panel

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const labelPadding = 2

// RenderLabel rasterizes s onto a transparent RGBA image sized to fit.
func RenderLabel(s string, fg color.Color) *image.RGBA {
	face := basicfont.Face7x13
	metrics := face.Metrics()

	width := font.MeasureString(face, s).Ceil() + 2*labelPadding
	height := metrics.Height.Ceil() + 2*labelPadding
	if width < 1 {
		width = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(labelPadding, labelPadding+metrics.Ascent.Ceil()),
	}
	d.DrawString(s)
	return img
}
