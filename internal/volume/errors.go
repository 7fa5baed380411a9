package volume

import "fmt"

// LoadError reports a file that could not be opened or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("error loading %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// UnsupportedDimensionalityError reports a volume that is neither 3D nor 4D.
type UnsupportedDimensionalityError struct {
	Path  string
	NDim  int
	Shape []int
}

func (e *UnsupportedDimensionalityError) Error() string {
	return fmt.Sprintf("%s has unexpected ndim %d (shape %v)", e.Path, e.NDim, e.Shape)
}
