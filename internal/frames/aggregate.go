package frames

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mrsinham/slicemovie/internal/logging"
	"github.com/mrsinham/slicemovie/internal/volume"
)

// FrameRecord identifies the source of one frame.
type FrameRecord struct {
	// FileIndex is the position of the file in the input list. Skipped
	// files still consume an index.
	FileIndex int
	// FileName is the base name of the file.
	FileName string
	// TimeIndex is the timepoint within the file, 0 for 3D volumes.
	TimeIndex int
}

// Stack is the ordered sequence of frames. All slices have the same length.
type Stack struct {
	Sagittal []volume.Plane
	Coronal  []volume.Plane
	Axial    []volume.Plane
	Records  []FrameRecord
}

// Len returns the number of frames.
func (s *Stack) Len() int {
	return len(s.Records)
}

// Planes returns the planes of one view.
func (s *Stack) Planes(v View) []volume.Plane {
	switch v {
	case Sagittal:
		return s.Sagittal
	case Coronal:
		return s.Coronal
	default:
		return s.Axial
	}
}

// Frame returns the three planes of frame i.
func (s *Stack) Frame(i int) Triplet {
	return Triplet{Sagittal: s.Sagittal[i], Coronal: s.Coronal[i], Axial: s.Axial[i]}
}

// DistinctFiles returns the number of files that contributed frames.
func (s *Stack) DistinctFiles() int {
	seen := make(map[int]struct{})
	for _, r := range s.Records {
		seen[r.FileIndex] = struct{}{}
	}
	return len(seen)
}

// Samples returns the total number of samples held by the stack.
func (s *Stack) Samples() int {
	n := 0
	for _, v := range Views {
		for _, p := range s.Planes(v) {
			n += len(p.Data)
		}
	}
	return n
}

// Bytes returns the memory held by the sample data.
func (s *Stack) Bytes() int64 {
	return int64(s.Samples()) * 4
}

func (s *Stack) push(t Triplet, rec FrameRecord) {
	s.Sagittal = append(s.Sagittal, t.Sagittal)
	s.Coronal = append(s.Coronal, t.Coronal)
	s.Axial = append(s.Axial, t.Axial)
	s.Records = append(s.Records, rec)
}

func (s *Stack) truncate(n int) {
	s.Sagittal = s.Sagittal[:n]
	s.Coronal = s.Coronal[:n]
	s.Axial = s.Axial[:n]
	s.Records = s.Records[:n]
}

// NoFramesError is returned when no input file produced a frame.
type NoFramesError struct {
	Files int
}

func (e *NoFramesError) Error() string {
	return fmt.Sprintf("no frames could be extracted from %d input files", e.Files)
}

// Options configures Aggregate.
type Options struct {
	// Open opens a volume. Defaults to volume.Open.
	Open func(path string) (volume.Volume, error)
	// Logger receives progress and skip messages. May be nil.
	Logger *logging.Logger
	// Progress is called after every file.
	Progress func(done, total int)
}

// Aggregate extracts the central slices of every path in order. 3D files
// yield one frame and 4D files one frame per timepoint. Files that cannot be
// loaded or are not 3D/4D are logged and skipped.
func Aggregate(paths []string, opts Options) (*Stack, error) {
	open := opts.Open
	if open == nil {
		open = volume.Open
	}
	log := opts.Logger

	stack := &Stack{}
	for fi, path := range paths {
		if err := appendFile(stack, fi, path, open, log); err != nil {
			var ue *volume.UnsupportedDimensionalityError
			var le *volume.LoadError
			switch {
			case errors.As(err, &ue):
				log.Warningf("File %s has unexpected ndim %d -- skipping", path, ue.NDim)
			case errors.As(err, &le):
				log.Warningf("Skipping %s: error loading (%v)", path, le.Err)
			default:
				log.Warningf("Skipping %s: %v", path, err)
			}
		}
		if opts.Progress != nil {
			opts.Progress(fi+1, len(paths))
		}
	}

	if stack.Len() == 0 {
		return nil, &NoFramesError{Files: len(paths)}
	}
	warnShapeMismatch(stack, log)
	return stack, nil
}

// appendFile adds the frames of one file, leaving the stack unchanged if
// any of them fails.
func appendFile(stack *Stack, fi int, path string, open func(string) (volume.Volume, error), log *logging.Logger) error {
	v, err := open(path)
	if err != nil {
		return err
	}
	defer func() { _ = v.Close() }()

	log.Infof("%s", path)

	nt := 1
	if v.NDim() == 4 {
		nt = v.Shape()[3]
	}
	name := filepath.Base(path)
	start := stack.Len()
	for t := 0; t < nt; t++ {
		tr, err := CentralSlices(v, t)
		if err != nil {
			stack.truncate(start)
			return &volume.LoadError{Path: path, Err: err}
		}
		stack.push(tr, FrameRecord{FileIndex: fi, FileName: name, TimeIndex: t})
	}
	log.Debugf("%s: %d frame(s), shape %v", name, nt, v.Shape())
	return nil
}

// warnShapeMismatch logs views whose planes do not all share the first
// frame's shape.
func warnShapeMismatch(stack *Stack, log *logging.Logger) {
	for _, view := range Views {
		planes := stack.Planes(view)
		r0, c0 := planes[0].Shape()
		for i, p := range planes[1:] {
			if r, c := p.Shape(); r != r0 || c != c0 {
				log.Warningf("%s frame %d has shape (%d, %d), first frame has (%d, %d)",
					view, i+2, r, c, r0, c0)
				break
			}
		}
	}
}
