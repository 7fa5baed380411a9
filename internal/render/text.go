package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// pointsToPixels converts a font size in points to pixels at dpi.
func pointsToPixels(pt float64, dpi int) float64 {
	return pt * float64(dpi) / 72
}

// renderText draws s with the 7x13 bitmap font and scales it so the line is
// px pixels tall, shrinking it further if it would exceed maxWidth. The
// result is white text on a transparent background.
func renderText(s string, px float64, maxWidth int) *image.RGBA {
	if s == "" {
		return nil
	}

	// Step 1: render at base size
	face := basicfont.Face7x13
	baseWidth := font.MeasureString(face, s).Ceil()
	baseHeight := face.Height
	textImg := image.NewRGBA(image.Rect(0, 0, baseWidth, baseHeight))
	drawer := &font.Drawer{
		Dst:  textImg,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: face,
		Dot:  fixed.Point26_6{Y: fixed.I(face.Ascent)},
	}
	drawer.DrawString(s)

	// Step 2: pick the scale factor
	scale := px / float64(baseHeight)
	if maxWidth > 0 && float64(baseWidth)*scale > float64(maxWidth) {
		scale = float64(maxWidth) / float64(baseWidth)
	}
	if scale < 1 {
		scale = 1
	}

	scaledWidth := int(float64(baseWidth) * scale)
	scaledHeight := int(float64(baseHeight) * scale)
	if scaledWidth == baseWidth && scaledHeight == baseHeight {
		return textImg
	}

	// Step 3: upscale with bilinear interpolation
	scaled := image.NewRGBA(image.Rect(0, 0, scaledWidth, scaledHeight))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), textImg, textImg.Bounds(), draw.Over, nil)
	return scaled
}

// stampText writes idx into dst wherever mask is at least half opaque. The
// mask is placed with its top-left corner at (x, y) and clipped to dst.
func stampText(dst *image.Paletted, mask *image.RGBA, x, y int, idx uint8) {
	if mask == nil {
		return
	}
	b := mask.Bounds()
	for sy := 0; sy < b.Dy(); sy++ {
		dy := y + sy
		if dy < dst.Rect.Min.Y || dy >= dst.Rect.Max.Y {
			continue
		}
		for sx := 0; sx < b.Dx(); sx++ {
			dx := x + sx
			if dx < dst.Rect.Min.X || dx >= dst.Rect.Max.X {
				continue
			}
			if mask.Pix[sy*mask.Stride+sx*4+3] >= 0x80 {
				dst.Pix[dst.PixOffset(dx, dy)] = idx
			}
		}
	}
}

// stampCentered stamps mask centred horizontally and vertically in box.
func stampCentered(dst *image.Paletted, mask *image.RGBA, box image.Rectangle, idx uint8) {
	if mask == nil {
		return
	}
	b := mask.Bounds()
	x := box.Min.X + (box.Dx()-b.Dx())/2
	y := box.Min.Y + (box.Dy()-b.Dy())/2
	stampText(dst, mask, x, y, idx)
}
