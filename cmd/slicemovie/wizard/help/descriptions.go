package help

// HelpText describes one wizard field.
type HelpText struct {
	Title       string
	Description string
	Details     string
}

// Texts holds the help of every wizard field, keyed by field key.
var Texts = map[string]HelpText{
	"data_dir": {
		Title:       "DATA DIRECTORY",
		Description: "Directory searched for input volumes, or a single volume file.",
		Details:     "Supported: .nii, .nii.gz, .mgh, .mgz and DICOM (.dcm or files with a DICM preamble).",
	},
	"filters": {
		Title:       "FILENAME FILTERS",
		Description: "Comma separated substrings that must all appear in a file name.",
		Details:     "Example: T1w,preproc,nii.gz. Ignored when the data path is a file.",
	},
	"exclude": {
		Title:       "EXCLUDE",
		Description: "Comma separated substrings that reject a file name.",
		Details:     "Example: mask,brainmask",
	},
	"recursive": {
		Title:       "RECURSIVE SEARCH",
		Description: "Search subdirectories of the data directory.",
	},
	"output": {
		Title:       "OUTPUT FILE",
		Description: "Animation file to write.",
		Details: `.gif is written directly.
.mp4, .mov, .mkv, .avi and .webm are encoded by ffmpeg.
Any other extension gets .mp4 appended.`,
	},
	"fps": {
		Title:       "FRAMES PER SECOND",
		Description: "Playback speed of the animation.",
		Details:     "Each frame is one volume, or one timepoint of a 4D volume.",
	},
	"dpi": {
		Title:       "DPI",
		Description: "Resolution of the 12 x 5 inch frames.",
		Details:     "150 dpi gives 1800 x 750 pixel frames.",
	},
	"colormap": {
		Title:       "COLOUR MAP",
		Description: "Colour map applied to the normalized intensities.",
	},
	"lower": {
		Title:       "LOWER PERCENTILE",
		Description: "Intensity percentile mapped to the low end of the colour map.",
		Details:     "Computed once over every slice of every frame (0-100).",
	},
	"upper": {
		Title:       "UPPER PERCENTILE",
		Description: "Intensity percentile mapped to the high end of the colour map.",
		Details:     "Must not be lower than the lower percentile (0-100).",
	},
	"method": {
		Title:       "PERCENTILE METHOD",
		Description: "How percentiles are estimated from the sorted samples.",
		Details: `linear    - interpolate between closest ranks
empirical - nearest sample at or above the rank
lininterp - piecewise linear over the empirical CDF`,
	},
}
