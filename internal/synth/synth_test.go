package synth

import (
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mrsinham/slicemovie/internal/volume"
)

func TestPhantom_Deterministic(t *testing.T) {
	shape := []int{6, 5, 4, 2}
	a, err := Phantom(shape, 42)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Phantom(shape, 42)
	c, _ := Phantom(shape, 43)

	if len(a) != 6*5*4*2 {
		t.Fatalf("got %d samples, want %d", len(a), 6*5*4*2)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed should give identical volumes")
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds should give different volumes")
	}
	frame := 6 * 5 * 4
	if reflect.DeepEqual(a[:frame], a[frame:]) {
		t.Error("timepoints should differ")
	}
	for i, v := range a {
		if v < 0 || math.IsNaN(float64(v)) {
			t.Fatalf("sample %d = %v, want finite non-negative", i, v)
		}
	}
}

func TestPhantom_BrighterAtCentre(t *testing.T) {
	shape := []int{21, 21, 21}
	data, err := Phantom(shape, 1)
	if err != nil {
		t.Fatal(err)
	}
	at := func(x, y, z int) float64 { return float64(data[x+21*(y+21*z)]) }

	var centre, corner float64
	for d := -1; d <= 1; d++ {
		centre += at(10+d, 10, 10) + at(10, 10+d, 10) + at(10, 10, 10+d)
		corner += at(1+d, 1, 1) + at(1, 1+d, 1) + at(1, 1, 1+d)
	}
	if centre <= corner {
		t.Errorf("centre mean %v should exceed corner mean %v", centre/9, corner/9)
	}
}

func TestConstant(t *testing.T) {
	data, err := Constant([]int{2, 3, 4}, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 24 {
		t.Fatalf("got %d samples", len(data))
	}
	for _, v := range data {
		if v != 7 {
			t.Fatalf("sample = %v, want 7", v)
		}
	}
	if _, err := Constant([]int{2, 3}, 1); err == nil {
		t.Error("2D shape should be rejected")
	}
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"64,64,32", []int{64, 64, 32}, false},
		{"8, 8, 8, 10", []int{8, 8, 8, 10}, false},
		{"8,8", nil, true},
		{"8,8,8,8,8", nil, true},
		{"8,x,8", nil, true},
		{"8,0,8", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseShape(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseShape() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseShape() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrite_ReadBack(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		shape     []int
		opts      volume.WriteOptions
		tolerance float64
	}{
		{"nifti", "a.nii", []int{5, 4, 3}, volume.WriteOptions{}, 0},
		{"nifti gz 4d", "a_bold.nii.gz", []int{4, 4, 3, 2}, volume.WriteOptions{}, 0},
		{"nifti int16 scaled", "s.nii", []int{4, 3, 2}, volume.WriteOptions{DataType: "int16", Slope: 0.5}, 0.26},
		{"nifti big endian", "be.nii", []int{3, 3, 3}, volume.WriteOptions{BigEndian: true}, 0},
		{"mgh", "a.mgh", []int{4, 3, 2}, volume.WriteOptions{}, 0},
		{"mgz 4d", "a.mgz", []int{3, 3, 2, 3}, volume.WriteOptions{}, 0},
		{"dicom", "a.dcm", []int{6, 5, 3}, volume.WriteOptions{}, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Phantom(tt.shape, 7)
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(t.TempDir(), "out", tt.file)
			if err := Write(path, tt.shape, data, tt.opts); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			v, err := volume.Open(path)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer v.Close()
			if !reflect.DeepEqual(v.Shape(), tt.shape) {
				t.Fatalf("shape %v, want %v", v.Shape(), tt.shape)
			}
			m, err := v.Load()
			if err != nil {
				t.Fatal(err)
			}
			for i, want := range data {
				if got := m.Data()[i]; math.Abs(float64(got-want)) > tt.tolerance {
					t.Fatalf("sample %d = %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestWrite_Unsupported(t *testing.T) {
	data, _ := Constant([]int{2, 2, 2}, 1)
	if err := Write(filepath.Join(t.TempDir(), "x.png"), []int{2, 2, 2}, data, volume.WriteOptions{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
