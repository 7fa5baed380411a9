package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mrsinham/slicemovie/cmd/slicemovie/wizard"
	"github.com/mrsinham/slicemovie/internal/config"
	"github.com/mrsinham/slicemovie/internal/discover"
	"github.com/mrsinham/slicemovie/internal/intensity"
	"github.com/mrsinham/slicemovie/internal/logging"
	"github.com/mrsinham/slicemovie/internal/pipeline"
	"github.com/mrsinham/slicemovie/internal/render"
	"github.com/mrsinham/slicemovie/internal/synth"
	"github.com/mrsinham/slicemovie/internal/volume"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "wizard":
			// Extract --from flag if present
			var fromConfig string
			for i, arg := range os.Args[2:] {
				if arg == "--from" && i+3 < len(os.Args) {
					fromConfig = os.Args[i+3]
				}
			}
			if err := wizard.Run(fromConfig); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			os.Exit(0)
		case "synth":
			if err := runSynth(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			os.Exit(0)
		}
	}

	defaults := config.Default()

	// Input selection
	dataDir := flag.String("data-dir", "", "Directory searched for volumes, or a single volume file (required)")
	var filters []string
	flag.Func("filt", "Filename substring that must match (repeatable or comma-separated, default: T1w,preproc,bold,nii.gz)", func(s string) error {
		filters = append(filters, discover.SplitList(s)...)
		return nil
	})
	var exclude []string
	flag.Func("exclude", "Filename substring that rejects a file (repeatable or comma-separated)", func(s string) error {
		exclude = append(exclude, discover.SplitList(s)...)
		return nil
	})
	noRecursive := flag.Bool("no-recursive", false, "Only search the top level of --data-dir")

	// Output
	out := flag.String("out", defaults.Output.Path, "Output animation (.gif, .mp4, .mov, .mkv, .avi, .webm)")
	fps := flag.Int("fps", defaults.Output.FPS, "Frames per second")
	dpi := flag.Int("dpi", defaults.Output.DPI, "Frame resolution in dots per inch (frames are 12x5 inches)")
	cmap := flag.String("cmap", defaults.Output.Colormap, fmt.Sprintf("Colour map: %s", strings.Join(render.Colormaps(), ", ")))
	ffmpeg := flag.String("ffmpeg", defaults.Output.FFmpeg, "ffmpeg binary used for video containers")

	// Intensity
	lower := flag.Float64("lower", defaults.Intensity.Lower, "Lower display percentile (0-100)")
	upper := flag.Float64("upper", defaults.Intensity.Upper, "Upper display percentile (0-100)")
	method := flag.String("percentile-method", defaults.Intensity.Method, fmt.Sprintf("Percentile method: %v", intensity.Methods))
	maxSamples := flag.Int("max-samples", 0, "Subsample to at most N values when computing percentiles (0 = all)")

	// Config and logging
	configFile := flag.String("config", "", "Load configuration from a YAML or TOML file")
	saveConfig := flag.String("save-config", "", "Save configuration to YAML file (after a successful run)")
	logFile := flag.String("log-file", "", "Also write log lines to this file (rotated)")
	quiet := flag.Bool("quiet", false, "Only print warnings and errors")
	verbose := flag.Bool("verbose", false, "Print debug messages")

	help := flag.Bool("help", false, "Show help message")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Parse()

	if *showVersion {
		fmt.Printf("slicemovie %s\n", version)
		os.Exit(0)
	}
	if *help {
		printHelp()
		os.Exit(0)
	}

	cfg := defaults
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags set explicitly override the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data-dir":
			cfg.Input.DataDir = *dataDir
		case "filt":
			cfg.Input.Filters = filters
		case "exclude":
			cfg.Input.Exclude = exclude
		case "no-recursive":
			cfg.Input.Recursive = !*noRecursive
		case "out":
			cfg.Output.Path = *out
		case "fps":
			cfg.Output.FPS = *fps
		case "dpi":
			cfg.Output.DPI = *dpi
		case "cmap":
			cfg.Output.Colormap = *cmap
		case "ffmpeg":
			cfg.Output.FFmpeg = *ffmpeg
		case "lower":
			cfg.Intensity.Lower = *lower
		case "upper":
			cfg.Intensity.Upper = *upper
		case "percentile-method":
			cfg.Intensity.Method = *method
		case "max-samples":
			cfg.Intensity.MaxSamples = *maxSamples
		case "log-file":
			cfg.Log.File = *logFile
		case "verbose":
			cfg.Log.Verbose = *verbose
		}
	})
	cfg.Log.Quiet = *quiet

	if cfg.Input.DataDir == "" {
		fmt.Fprintf(os.Stderr, "Error: --data-dir is required\n")
		printUsage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	res, err := pipeline.Run(ctx, pipeline.FromConfig(cfg, log))
	stop()
	if err != nil {
		_ = log.Shutdown()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Debugf("wrote %s (%s)", res.Output, humanize.Bytes(uint64(res.OutputSize)))

	if *saveConfig != "" {
		if err := config.Save(cfg, *saveConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
		} else {
			log.Infof("Configuration saved to %s", *saveConfig)
		}
	}
	_ = log.Shutdown()
}

// runSynth writes a synthetic volume.
func runSynth(args []string) error {
	fs := flag.NewFlagSet("synth", flag.ContinueOnError)
	shapeStr := fs.String("shape", "64,64,48", "Volume shape X,Y,Z or X,Y,Z,T")
	out := fs.String("out", "", "Output file (.nii, .nii.gz, .mgh, .mgz, .dcm) (required)")
	seed := fs.Int64("seed", 1, "Seed for reproducibility")
	constant := fs.String("constant", "", "Fill every sample with this value instead of the phantom")
	dtype := fs.String("dtype", "float32", "NIfTI sample type: uint8, int8, int16, uint16, int32, uint32, float32, float64")
	slope := fs.Float64("slope", 0, "NIfTI scl_slope (0 = unscaled)")
	inter := fs.Float64("inter", 0, "NIfTI scl_inter")
	bigEndian := fs.Bool("big-endian", false, "Write a big-endian NIfTI file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("--out is required")
	}

	shape, err := synth.ParseShape(*shapeStr)
	if err != nil {
		return err
	}

	var data []float32
	if *constant != "" {
		var v float64
		if _, err := fmt.Sscanf(*constant, "%g", &v); err != nil {
			return fmt.Errorf("invalid --constant %q", *constant)
		}
		data, err = synth.Constant(shape, float32(v))
	} else {
		data, err = synth.Phantom(shape, *seed)
	}
	if err != nil {
		return err
	}

	opts := volume.WriteOptions{
		DataType:  *dtype,
		Slope:     float32(*slope),
		Inter:     float32(*inter),
		BigEndian: *bigEndian,
	}
	if err := synth.Write(*out, shape, data, opts); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (shape %v, %s)\n", *out, shape, humanize.Bytes(uint64(len(data)*4)))
	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "\nUsage:")
	fmt.Fprintln(os.Stderr, "  slicemovie --data-dir <DIR> [options]")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	flag.PrintDefaults()
}

func printHelp() {
	fmt.Println("slicemovie")
	fmt.Println("==========")
	fmt.Println()
	fmt.Println("Build a movie of the central sagittal, coronal and axial slices of")
	fmt.Println("3D/4D brain volumes, one frame per volume or timepoint.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  slicemovie --data-dir <DIR> [options]")
	fmt.Println("  slicemovie wizard [--from <CONFIG>]")
	fmt.Println("  slicemovie synth --shape X,Y,Z[,T] --out <FILE> [options]")
	fmt.Println()
	fmt.Println("Input:")
	fmt.Println("  --data-dir <DIR>      Directory to search, or a single volume file (required)")
	fmt.Println("  --filt <LIST>         Substrings every file name must contain")
	fmt.Println("                        (default: T1w,preproc,bold,nii.gz)")
	fmt.Println("  --exclude <LIST>      Substrings that reject a file name")
	fmt.Println("  --no-recursive        Do not search subdirectories")
	fmt.Println()
	fmt.Println("Output:")
	fmt.Println("  --out <FILE>          Output file (default: slices_movie.mp4)")
	fmt.Println("                        .gif is written directly, video containers need ffmpeg")
	fmt.Println("  --fps <N>             Frames per second (default: 5)")
	fmt.Println("  --dpi <N>             Resolution of the 12x5 inch frames (default: 150)")
	fmt.Printf("  --cmap <NAME>         Colour map: %s (default: gray)\n", strings.Join(render.Colormaps(), ", "))
	fmt.Println("  --ffmpeg <PATH>       ffmpeg binary (default: ffmpeg)")
	fmt.Println()
	fmt.Println("Intensity:")
	fmt.Println("  --lower <P>           Lower display percentile (default: 1)")
	fmt.Println("  --upper <P>           Upper display percentile (default: 99)")
	fmt.Println("  --percentile-method   linear, empirical or lininterp (default: linear)")
	fmt.Println("  --max-samples <N>     Subsample large stacks before sorting (default: 0 = all)")
	fmt.Println()
	fmt.Println("Configuration and logging:")
	fmt.Println("  --config <FILE>       Load settings from YAML or TOML; flags override it")
	fmt.Println("  --save-config <FILE>  Save the settings to YAML after a successful run")
	fmt.Println("  --log-file <FILE>     Also log to a rotating file")
	fmt.Println("  --quiet               Only print warnings and errors")
	fmt.Println("  --verbose             Print debug messages")
	fmt.Println("  --version             Show version")
	fmt.Println("  --help                Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # All preprocessed BOLD runs of a BIDS derivatives tree")
	fmt.Println("  slicemovie --data-dir derivatives/fmriprep --filt bold,preproc,nii.gz --out bold.mp4")
	fmt.Println()
	fmt.Println("  # FreeSurfer volumes as a GIF with a hot colour map")
	fmt.Println("  slicemovie --data-dir sub-01/mri --filt .mgz --cmap hot --out sub-01.gif")
	fmt.Println()
	fmt.Println("  # Generate a 4D test volume and animate it")
	fmt.Println("  slicemovie synth --shape 64,64,40,10 --out test/sub-01_bold.nii.gz")
	fmt.Println("  slicemovie --data-dir test --filt bold --out test.gif")
}
