package render

import (
	"fmt"
	"image"
	"math"

	"github.com/mrsinham/slicemovie/internal/frames"
	"github.com/mrsinham/slicemovie/internal/intensity"
	"github.com/mrsinham/slicemovie/internal/volume"
)

// Font sizes in points.
const (
	titlePoints      = 12
	panelTitlePoints = 10
)

// layout holds the pixel geometry of one frame.
type layout struct {
	width, height int
	title         image.Rectangle
	panelTitles   [3]image.Rectangle
	panels        [3]image.Rectangle
	titlePx       float64
	panelTitlePx  float64
}

// newLayout lays out a figure of w x h inches at dpi: a title band on top and
// three equal panels side by side.
func newLayout(w, h float64, dpi int) layout {
	l := layout{
		width:        int(math.Round(w * float64(dpi))),
		height:       int(math.Round(h * float64(dpi))),
		titlePx:      pointsToPixels(titlePoints, dpi),
		panelTitlePx: pointsToPixels(panelTitlePoints, dpi),
	}
	// Video encoders need even dimensions.
	l.width += l.width % 2
	l.height += l.height % 2

	margin := int(0.02 * float64(l.width))
	gap := int(0.02 * float64(l.width))
	top := int(0.02 * float64(l.height))
	bottom := int(0.04 * float64(l.height))
	titleBand := int(math.Ceil(l.titlePx * 1.6))
	panelTitleBand := int(math.Ceil(l.panelTitlePx * 1.6))

	l.title = image.Rect(0, top, l.width, top+titleBand)

	panelTop := top + titleBand + panelTitleBand
	panelWidth := (l.width - 2*margin - 2*gap) / 3
	for i := range l.panels {
		x0 := margin + i*(panelWidth+gap)
		l.panelTitles[i] = image.Rect(x0, top+titleBand, x0+panelWidth, panelTop)
		l.panels[i] = image.Rect(x0, panelTop, x0+panelWidth, l.height-bottom)
	}
	return l
}

// Title returns the caption of frame i of n.
func Title(rec frames.FrameRecord, distinctFiles, i, n int) string {
	return fmt.Sprintf("File %d/%d : %s  |  Frame %d/%d  (vol %d)",
		rec.FileIndex+1, distinctFiles, rec.FileName, i+1, n, rec.TimeIndex+1)
}

// composer draws frames onto a shared static background.
type composer struct {
	layout     layout
	cmap       *Colormap
	rng        intensity.DisplayRange
	background *image.Paletted
}

func newComposer(l layout, cmap *Colormap, rng intensity.DisplayRange) *composer {
	bg := image.NewPaletted(image.Rect(0, 0, l.width, l.height), cmap.Palette())
	for i := range bg.Pix {
		bg.Pix[i] = bgIndex
	}
	for i, view := range frames.Views {
		mask := renderText(view.String(), l.panelTitlePx, l.panelTitles[i].Dx())
		stampCentered(bg, mask, l.panelTitles[i], textIndex)
	}
	return &composer{layout: l, cmap: cmap, rng: rng, background: bg}
}

// frame draws one three-panel frame with its caption.
func (c *composer) frame(tr frames.Triplet, title string) *image.Paletted {
	img := image.NewPaletted(c.background.Rect, c.background.Palette)
	copy(img.Pix, c.background.Pix)

	mask := renderText(title, c.layout.titlePx, c.layout.width-c.layout.width/20)
	stampCentered(img, mask, c.layout.title, textIndex)

	for i, view := range frames.Views {
		c.drawPanel(img, c.layout.panels[i], tr.Get(view))
	}
	return img
}

// drawPanel shows the transpose of p with its origin at the bottom-left,
// scaled with nearest-neighbour sampling to fit box with the aspect ratio
// kept.
func (c *composer) drawPanel(dst *image.Paletted, box image.Rectangle, p volume.Plane) {
	// Displayed width runs along the plane's rows, height along its columns.
	w, h := p.Rows, p.Cols
	if w == 0 || h == 0 || box.Empty() {
		return
	}

	idx := make([]uint8, w*h)
	for u := 0; u < w; u++ {
		for v := 0; v < h; v++ {
			// Row v of the display counts down from the top, so it holds
			// column h-1-v of the plane.
			idx[v*w+u] = c.cmap.Index(c.rng.Normalize(float64(p.At(u, h-1-v))))
		}
	}

	scale := math.Min(float64(box.Dx())/float64(w), float64(box.Dy())/float64(h))
	dw := max(1, int(math.Round(float64(w)*scale)))
	dh := max(1, int(math.Round(float64(h)*scale)))
	x0 := box.Min.X + (box.Dx()-dw)/2
	y0 := box.Min.Y + (box.Dy()-dh)/2

	cols := make([]int, dw)
	for dx := range cols {
		cols[dx] = min(w-1, dx*w/dw)
	}
	for dy := 0; dy < dh; dy++ {
		v := min(h-1, dy*h/dh)
		row := dst.Pix[dst.PixOffset(x0, y0+dy):]
		src := idx[v*w : (v+1)*w]
		for dx, u := range cols {
			row[dx] = src[u]
		}
	}
}
