// Package render turns a frame stack into a three-panel animation and
// encodes it as an animated GIF or, through ffmpeg, as a video file.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrsinham/slicemovie/internal/frames"
	"github.com/mrsinham/slicemovie/internal/intensity"
)

// Options configures rendering and encoding.
type Options struct {
	FPS      int
	DPI      int
	Colormap string
	// FigureWidth and FigureHeight are the frame size in inches.
	FigureWidth  float64
	FigureHeight float64
	// FFmpeg is the encoder binary used for video containers.
	FFmpeg string
	// Progress is called after every rendered frame.
	Progress func(current, total int)
}

// DefaultOptions returns 5 fps, 150 dpi, gray frames of 12x5 inches.
func DefaultOptions() Options {
	return Options{
		FPS:          5,
		DPI:          150,
		Colormap:     "gray",
		FigureWidth:  12,
		FigureHeight: 5,
		FFmpeg:       "ffmpeg",
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.FPS <= 0 {
		return fmt.Errorf("fps must be > 0, got %d", o.FPS)
	}
	if o.DPI < 10 {
		return fmt.Errorf("dpi must be >= 10, got %d", o.DPI)
	}
	if o.FigureWidth <= 0 || o.FigureHeight <= 0 {
		return fmt.Errorf("invalid figure size %gx%g", o.FigureWidth, o.FigureHeight)
	}
	if _, ok := colormaps[o.Colormap]; !ok {
		return fmt.Errorf("unknown colormap %q, valid options: %v", o.Colormap, Colormaps())
	}
	return nil
}

// RenderError reports a failure to produce the output file.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to save animation %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Animation is a fully rendered frame sequence.
type Animation struct {
	Frames  []*image.Paletted
	Palette color.Palette
	FPS     int
	Width   int
	Height  int
}

// Build renders one frame per stack entry using a single display range.
func Build(stack *frames.Stack, rng intensity.DisplayRange, opts Options) (*Animation, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if stack == nil || stack.Len() == 0 {
		return nil, fmt.Errorf("no frames to render")
	}
	cmap, err := LookupColormap(opts.Colormap)
	if err != nil {
		return nil, err
	}

	l := newLayout(opts.FigureWidth, opts.FigureHeight, opts.DPI)
	c := newComposer(l, cmap, rng)
	distinct := stack.DistinctFiles()
	n := stack.Len()

	anim := &Animation{
		Frames:  make([]*image.Paletted, n),
		Palette: c.background.Palette,
		FPS:     opts.FPS,
		Width:   l.width,
		Height:  l.height,
	}
	for i := 0; i < n; i++ {
		anim.Frames[i] = c.frame(stack.Frame(i), Title(stack.Records[i], distinct, i, n))
		if opts.Progress != nil {
			opts.Progress(i+1, n)
		}
	}
	return anim, nil
}

// Container is the output file kind.
type Container int

const (
	ContainerVideo Container = iota
	ContainerGIF
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
}

// ResolveOutput picks the container from the extension of path. Unknown
// extensions get ".mp4" appended.
func ResolveOutput(path string) (string, Container) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".gif":
		return path, ContainerGIF
	case videoExtensions[ext]:
		return path, ContainerVideo
	default:
		return path + ".mp4", ContainerVideo
	}
}

// Save encodes anim to path and returns the path actually written. A
// partially written file is removed on failure.
func Save(ctx context.Context, anim *Animation, path string, opts Options) (string, error) {
	out, container := ResolveOutput(path)
	if anim == nil || len(anim.Frames) == 0 {
		return out, &RenderError{Path: out, Err: fmt.Errorf("animation has no frames")}
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return out, &RenderError{Path: out, Err: err}
		}
	}

	var err error
	switch container {
	case ContainerGIF:
		err = encodeGIF(out, anim)
	default:
		ffmpeg := opts.FFmpeg
		if ffmpeg == "" {
			ffmpeg = "ffmpeg"
		}
		err = encodeVideo(ctx, ffmpeg, out, anim)
	}
	if err != nil {
		_ = os.Remove(out)
		return out, &RenderError{Path: out, Err: err}
	}
	return out, nil
}
