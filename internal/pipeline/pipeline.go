// Package pipeline runs the batch from file discovery to the saved
// animation.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/mrsinham/slicemovie/internal/config"
	"github.com/mrsinham/slicemovie/internal/discover"
	"github.com/mrsinham/slicemovie/internal/frames"
	"github.com/mrsinham/slicemovie/internal/intensity"
	"github.com/mrsinham/slicemovie/internal/logging"
	"github.com/mrsinham/slicemovie/internal/render"
	"github.com/mrsinham/slicemovie/internal/volume"
)

// Options configures a run.
type Options struct {
	DataDir   string
	Filters   []string
	Exclude   []string
	Recursive bool
	Output    string

	Intensity intensity.Options
	Render    render.Options

	Logger *logging.Logger
	// Open overrides volume.Open.
	Open func(path string) (volume.Volume, error)
}

// FromConfig builds run options from a configuration.
func FromConfig(cfg config.Config, log *logging.Logger) Options {
	return Options{
		DataDir:   cfg.Input.DataDir,
		Filters:   cfg.Input.Filters,
		Exclude:   cfg.Input.Exclude,
		Recursive: cfg.Input.Recursive,
		Output:    cfg.Output.Path,
		Intensity: cfg.IntensityOptions(),
		Render:    cfg.RenderOptions(),
		Logger:    log,
	}
}

// Result summarizes a successful run.
type Result struct {
	Files      []string
	Frames     int
	Range      intensity.DisplayRange
	Output     string
	OutputSize int64
}

// Run discovers the inputs, stacks their central slices, computes one display
// range and writes the animation.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Logger
	if err := opts.Intensity.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Render.Validate(); err != nil {
		return nil, err
	}

	paths, err := discover.Resolve(opts.DataDir, opts.Filters, opts.Exclude, opts.Recursive)
	if err != nil {
		return nil, err
	}
	log.Infof("Found %d files. Building frames...", len(paths))

	stack, err := frames.Aggregate(paths, frames.Options{
		Open:   opts.Open,
		Logger: log,
		Progress: func(done, total int) {
			log.Debugf("processed %d/%d files", done, total)
		},
	})
	if err != nil {
		return nil, err
	}

	rng, err := intensity.Compute(stack, opts.Intensity)
	if err != nil {
		return nil, err
	}
	log.Infof("Total frames: %d  | intensity range (%g-%g %%): %.3f - %.3f",
		stack.Len(), opts.Intensity.Lower, opts.Intensity.Upper, rng.Min, rng.Max)
	log.Debugf("slice stack holds %s", humanize.Bytes(uint64(stack.Bytes())))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ropts := opts.Render
	ropts.Progress = func(current, total int) {
		if current == total || current%50 == 0 {
			log.Debugf("rendered %d/%d frames", current, total)
		}
	}
	anim, err := render.Build(stack, rng, ropts)
	if err != nil {
		return nil, fmt.Errorf("render frames: %w", err)
	}

	out, _ := render.ResolveOutput(opts.Output)
	log.Infof("Saving animation to %s...", out)
	out, err = render.Save(ctx, anim, opts.Output, ropts)
	if err != nil {
		log.Errorf("Error saving animation: %v", err)
		return nil, err
	}
	log.Infof("Saved successfully.")

	res := &Result{
		Files:  paths,
		Frames: stack.Len(),
		Range:  rng,
		Output: out,
	}
	if info, err := os.Stat(out); err == nil {
		res.OutputSize = info.Size()
		log.Debugf("%s: %s", out, humanize.Bytes(uint64(info.Size())))
	}
	return res, nil
}
