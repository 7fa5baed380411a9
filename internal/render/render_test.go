package render

import (
	"context"
	"errors"
	"image"
	"image/gif"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/mrsinham/slicemovie/internal/frames"
	"github.com/mrsinham/slicemovie/internal/intensity"
	"github.com/mrsinham/slicemovie/internal/volume"
)

func planeFrom(rows, cols int, f func(r, c int) float32) volume.Plane {
	p := volume.NewPlane(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			p.Set(r, c, f(r, c))
		}
	}
	return p
}

func testStack(n int) *frames.Stack {
	s := &frames.Stack{}
	for i := 0; i < n; i++ {
		v := float32(i)
		s.Sagittal = append(s.Sagittal, planeFrom(4, 4, func(r, c int) float32 { return v }))
		s.Coronal = append(s.Coronal, planeFrom(4, 4, func(r, c int) float32 { return v }))
		s.Axial = append(s.Axial, planeFrom(4, 4, func(r, c int) float32 { return v }))
		s.Records = append(s.Records, frames.FrameRecord{FileIndex: 0, FileName: "bold.nii", TimeIndex: i})
	}
	return s
}

func smallOptions() Options {
	opts := DefaultOptions()
	opts.DPI = 20
	return opts
}

func TestTitle(t *testing.T) {
	rec := frames.FrameRecord{FileIndex: 2, FileName: "sub-01_bold.nii.gz", TimeIndex: 4}
	got := Title(rec, 3, 9, 20)
	want := "File 3/3 : sub-01_bold.nii.gz  |  Frame 10/20  (vol 5)"
	if got != want {
		t.Errorf("Title() = %q, want %q", got, want)
	}
}

func TestResolveOutput(t *testing.T) {
	tests := []struct {
		in        string
		want      string
		container Container
	}{
		{"movie.gif", "movie.gif", ContainerGIF},
		{"movie.GIF", "movie.GIF", ContainerGIF},
		{"out/slices_movie.mp4", "out/slices_movie.mp4", ContainerVideo},
		{"clip.webm", "clip.webm", ContainerVideo},
		{"movie.avi", "movie.avi", ContainerVideo},
		{"movie", "movie.mp4", ContainerVideo},
		{"movie.xyz", "movie.xyz.mp4", ContainerVideo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, c := ResolveOutput(tt.in)
			if got != tt.want || c != tt.container {
				t.Errorf("ResolveOutput(%q) = (%q, %v), want (%q, %v)", tt.in, got, c, tt.want, tt.container)
			}
		})
	}
}

func TestColormaps(t *testing.T) {
	names := Colormaps()
	if len(names) < 6 {
		t.Fatalf("expected at least 6 colour maps, got %v", names)
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cm, err := LookupColormap(name)
			if err != nil {
				t.Fatalf("LookupColormap failed: %v", err)
			}
			p := cm.Palette()
			if len(p) != 256 {
				t.Fatalf("palette has %d entries, want 256", len(p))
			}
			if p[bgIndex] != background || p[textIndex] != foreground {
				t.Error("reserved palette entries are wrong")
			}
		})
	}

	if _, err := LookupColormap("viridis-ish"); err == nil {
		t.Error("expected error for unknown colour map")
	}
}

func TestColormap_GrayEnds(t *testing.T) {
	cm, err := LookupColormap("gray")
	if err != nil {
		t.Fatal(err)
	}
	p := cm.Palette()
	r, g, b, _ := p[cm.Index(0)].RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("gray low end = (%d, %d, %d), want black", r, g, b)
	}
	r, g, b, _ = p[cm.Index(1)].RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("gray high end = (%d, %d, %d), want white", r, g, b)
	}
	if cm.Index(-3) != 0 || cm.Index(7) != levels-1 {
		t.Error("Index should clamp to the level range")
	}
	if cm.Index(math.NaN()) != bgIndex {
		t.Error("NaN should map to the background")
	}
}

func TestNewLayout(t *testing.T) {
	tests := []struct {
		dpi           int
		width, height int
	}{
		{150, 1800, 750},
		{100, 1200, 500},
		{15, 180, 76},
	}
	for _, tt := range tests {
		l := newLayout(12, 5, tt.dpi)
		if l.width != tt.width || l.height != tt.height {
			t.Errorf("dpi %d: size %dx%d, want %dx%d", tt.dpi, l.width, l.height, tt.width, tt.height)
		}
		for i := 1; i < 3; i++ {
			if l.panels[i].Min.X < l.panels[i-1].Max.X {
				t.Errorf("dpi %d: panels %d and %d overlap", tt.dpi, i-1, i)
			}
		}
		for _, p := range l.panels {
			if !p.In(image.Rect(0, 0, l.width, l.height)) || p.Empty() {
				t.Errorf("dpi %d: panel %v outside canvas", tt.dpi, p)
			}
		}
	}
}

func TestComposer_OrientationAndClamp(t *testing.T) {
	// Axial plane of a (2, 3, z) volume: rows index X, columns index Y.
	axial := planeFrom(2, 3, func(r, c int) float32 { return float32(r*3 + c) })
	empty := volume.Plane{}
	tr := frames.Triplet{Sagittal: empty, Coronal: empty, Axial: axial}

	cm, _ := LookupColormap("gray")
	l := newLayout(12, 5, 20)
	rng := intensity.DisplayRange{Min: 1, Max: 4}
	c := newComposer(l, cm, rng)
	img := c.frame(tr, "")

	// Rebuild the panel geometry: transposed display is 2 wide, 3 tall.
	box := l.panels[2]
	scale := math.Min(float64(box.Dx())/2, float64(box.Dy())/3)
	dw := int(math.Round(2 * scale))
	dh := int(math.Round(3 * scale))
	x0 := box.Min.X + (box.Dx()-dw)/2
	y0 := box.Min.Y + (box.Dy()-dh)/2
	cellW, cellH := dw/2, dh/3

	for u := 0; u < 2; u++ {
		for v := 0; v < 3; v++ {
			// Sample the centre of display cell (u, v); v counts from the top.
			x := x0 + u*cellW + cellW/2
			y := y0 + v*cellH + cellH/2
			value := axial.At(u, 2-v)
			want := cm.Index(rng.Normalize(float64(value)))
			if got := img.ColorIndexAt(x, y); got != want {
				t.Errorf("cell (%d, %d) value %v: index %d, want %d", u, v, value, got, want)
			}
		}
	}

	// Value 0 is below the range and 5 above: both clamp.
	if got := img.ColorIndexAt(x0+cellW/2, y0+2*cellH+cellH/2); got != 0 {
		t.Errorf("clamped low value index = %d, want 0", got)
	}
	if got := img.ColorIndexAt(x0+cellW+cellW/2, y0+cellH/2); got != levels-1 {
		t.Errorf("clamped high value index = %d, want %d", got, levels-1)
	}

	// Empty planes leave the background untouched.
	if got := img.ColorIndexAt(l.panels[0].Min.X+l.panels[0].Dx()/2, l.panels[0].Min.Y+l.panels[0].Dy()/2); got != bgIndex {
		t.Errorf("empty panel index = %d, want background", got)
	}
}

func TestComposer_DegenerateRange(t *testing.T) {
	p := planeFrom(4, 4, func(r, c int) float32 { return 7 })
	tr := frames.Triplet{Sagittal: p, Coronal: p, Axial: p}
	cm, _ := LookupColormap("gray")
	l := newLayout(12, 5, 20)
	img := newComposer(l, cm, intensity.DisplayRange{Min: 7, Max: 7}).frame(tr, "")

	box := l.panels[1]
	if got := img.ColorIndexAt(box.Min.X+box.Dx()/2, box.Min.Y+box.Dy()/2); got != 0 {
		t.Errorf("constant frame index = %d, want 0", got)
	}
}

func TestBuild(t *testing.T) {
	var calls int
	opts := smallOptions()
	opts.Progress = func(current, total int) { calls++ }

	anim, err := Build(testStack(3), intensity.DisplayRange{Min: 0, Max: 2}, opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(anim.Frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(anim.Frames))
	}
	if anim.Width != 240 || anim.Height != 100 {
		t.Errorf("size %dx%d, want 240x100", anim.Width, anim.Height)
	}
	if calls != 3 {
		t.Errorf("progress called %d times, want 3", calls)
	}
	if _, err := Build(&frames.Stack{}, intensity.DisplayRange{}, opts); err == nil {
		t.Error("Build should fail on an empty stack")
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Options)
		wantErr bool
	}{
		{"default", func(o *Options) {}, false},
		{"zero fps", func(o *Options) { o.FPS = 0 }, true},
		{"tiny dpi", func(o *Options) { o.DPI = 5 }, true},
		{"bad colormap", func(o *Options) { o.Colormap = "nope" }, true},
		{"bad figure", func(o *Options) { o.FigureHeight = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			if err := opts.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSave_GIF(t *testing.T) {
	opts := smallOptions()
	anim, err := Build(testStack(4), intensity.DisplayRange{Min: 0, Max: 3}, opts)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "nested", "movie.gif")
	out, err := Save(context.Background(), anim, path, opts)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if out != path {
		t.Errorf("Save returned %q, want %q", out, path)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}
	if len(g.Image) != 4 {
		t.Errorf("gif has %d frames, want 4", len(g.Image))
	}
	for i, d := range g.Delay {
		if d != 20 {
			t.Errorf("frame %d delay = %d, want 20", i, d)
		}
	}
	if b := g.Image[0].Bounds(); b.Dx() != 240 || b.Dy() != 100 {
		t.Errorf("gif frame size %v, want 240x100", b)
	}
}

func TestSave_MissingEncoder(t *testing.T) {
	opts := smallOptions()
	opts.FFmpeg = filepath.Join(t.TempDir(), "no-such-ffmpeg")
	anim, err := Build(testStack(1), intensity.DisplayRange{}, opts)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "movie")
	out, err := Save(context.Background(), anim, path, opts)
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("Save() error = %v, want *RenderError", err)
	}
	if out != path+".mp4" {
		t.Errorf("output path = %q, want %q", out, path+".mp4")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("no output file should remain, stat err = %v", err)
	}
}

func TestSave_EmptyAnimation(t *testing.T) {
	_, err := Save(context.Background(), &Animation{}, filepath.Join(t.TempDir(), "x.gif"), smallOptions())
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("Save() error = %v, want *RenderError", err)
	}
}

func TestSave_Video(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	opts := smallOptions()
	anim, err := Build(testStack(5), intensity.DisplayRange{Min: 0, Max: 4}, opts)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "movie.mp4")
	if _, err := Save(context.Background(), anim, path, opts); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("video file is empty")
	}
}

func TestWriteRawFrames(t *testing.T) {
	opts := smallOptions()
	anim, err := Build(testStack(2), intensity.DisplayRange{Min: 0, Max: 1}, opts)
	if err != nil {
		t.Fatal(err)
	}
	var buf countingWriter
	if err := writeRawFrames(&buf, anim); err != nil {
		t.Fatal(err)
	}
	if want := 2 * anim.Width * anim.Height * 4; buf.n != want {
		t.Errorf("wrote %d bytes, want %d", buf.n, want)
	}
}

type countingWriter struct{ n int }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += len(p)
	return len(p), nil
}
