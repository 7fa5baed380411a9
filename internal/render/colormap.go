package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// Colour map levels plus two reserved palette entries.
const (
	levels    = 254
	bgIndex   = 254
	textIndex = 255
)

var (
	background = color.RGBA{255, 255, 255, 255}
	foreground = color.RGBA{0, 0, 0, 255}
)

// Colormap maps normalized intensities onto palette indices.
type Colormap struct {
	Name   string
	colors []color.Color
}

var colormaps = map[string]func() ([]color.Color, error){
	"gray": func() ([]color.Color, error) {
		out := make([]color.Color, levels)
		for i := range out {
			g := uint8(math.Round(float64(i) * 255 / float64(levels-1)))
			out[i] = color.RGBA{g, g, g, 255}
		}
		return out, nil
	},
	"hot": func() ([]color.Color, error) {
		return palette.Heat(levels, 1).Colors(), nil
	},
	"rainbow": func() ([]color.Color, error) {
		// Blue (hue 2/3) through red (hue 0).
		return palette.Rainbow(levels, 2.0/3, 0, 1, 1, 1).Colors(), nil
	},
	"kindlmann": func() ([]color.Color, error) {
		return morelandColors(moreland.Kindlmann())
	},
	"blackbody": func() ([]color.Color, error) {
		return morelandColors(moreland.BlackBody())
	},
	"coolwarm": func() ([]color.Color, error) {
		return morelandColors(moreland.SmoothBlueRed())
	},
}

func morelandColors(cm palette.ColorMap) ([]color.Color, error) {
	cm.SetMax(1)
	cm.SetMin(0)
	colors := cm.Palette(levels).Colors()
	if len(colors) != levels {
		return nil, fmt.Errorf("colour map produced %d colours, want %d", len(colors), levels)
	}
	return colors, nil
}

// Colormaps returns the names of the available colour maps.
func Colormaps() []string {
	names := make([]string, 0, len(colormaps))
	for name := range colormaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupColormap returns the named colour map.
func LookupColormap(name string) (*Colormap, error) {
	build, ok := colormaps[name]
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q, valid options: %v", name, Colormaps())
	}
	colors, err := build()
	if err != nil {
		return nil, fmt.Errorf("colormap %s: %w", name, err)
	}
	return &Colormap{Name: name, colors: colors}, nil
}

// Palette returns the full frame palette: the colour map levels followed by
// the background and text colours.
func (c *Colormap) Palette() color.Palette {
	p := make(color.Palette, 0, levels+2)
	p = append(p, c.colors...)
	return append(p, background, foreground)
}

// Index returns the palette index for f in [0, 1]. NaN maps to the
// background.
func (c *Colormap) Index(f float64) uint8 {
	if math.IsNaN(f) {
		return bgIndex
	}
	f = math.Max(0, math.Min(1, f))
	return uint8(math.Round(f * (levels - 1)))
}
