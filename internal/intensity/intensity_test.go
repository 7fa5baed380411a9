package intensity

import (
	"math"
	"testing"

	"github.com/mrsinham/slicemovie/internal/frames"
	"github.com/mrsinham/slicemovie/internal/volume"
)

func stackOf(planes ...[]float32) *frames.Stack {
	s := &frames.Stack{}
	for i, data := range planes {
		p := volume.Plane{Rows: 1, Cols: len(data), Data: data}
		s.Sagittal = append(s.Sagittal, p)
		s.Coronal = append(s.Coronal, volume.Plane{Rows: 1, Cols: 0})
		s.Axial = append(s.Axial, volume.Plane{Rows: 1, Cols: 0})
		s.Records = append(s.Records, frames.FrameRecord{FileIndex: i})
	}
	return s
}

func seq(from, to int) []float32 {
	var out []float32
	for i := from; i <= to; i++ {
		out = append(out, float32(i))
	}
	return out
}

func TestCompute_LinearMatchesNumpy(t *testing.T) {
	// numpy.percentile(np.arange(1, 101), [1, 99]) == [1.99, 99.01]
	r, err := Compute(stackOf(seq(1, 100)), DefaultOptions())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if math.Abs(r.Min-1.99) > 1e-9 || math.Abs(r.Max-99.01) > 1e-9 {
		t.Errorf("range = %+v, want {1.99 99.01}", r)
	}
}

func TestCompute_SpansAllViewsAndFrames(t *testing.T) {
	s := &frames.Stack{
		Sagittal: []volume.Plane{{Rows: 1, Cols: 2, Data: []float32{0, 0}}},
		Coronal:  []volume.Plane{{Rows: 1, Cols: 2, Data: []float32{0, 0}}},
		Axial:    []volume.Plane{{Rows: 1, Cols: 2, Data: []float32{1000, 1000}}},
		Records:  []frames.FrameRecord{{}},
	}
	r, err := Compute(s, Options{Lower: 0, Upper: 100})
	if err != nil {
		t.Fatal(err)
	}
	if r.Min != 0 || r.Max != 1000 {
		t.Errorf("range = %+v, want {0 1000}", r)
	}
}

func TestCompute_Constant(t *testing.T) {
	data := make([]float32, 48)
	for i := range data {
		data[i] = 7
	}
	r, err := Compute(stackOf(data), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if r.Min != 7 || r.Max != 7 {
		t.Errorf("range = %+v, want {7 7}", r)
	}
}

func TestCompute_Bounds(t *testing.T) {
	data := []float32{-5, 3, 3, 8, 100, -2, 0.5, 42, 17, 9}
	for _, m := range Methods {
		t.Run(string(m), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Method = m
			r, err := Compute(stackOf(data[:5], data[5:]), opts)
			if err != nil {
				t.Fatal(err)
			}
			if r.Min > r.Max {
				t.Errorf("Min %v > Max %v", r.Min, r.Max)
			}
			if r.Min < -5 || r.Max > 100 {
				t.Errorf("range %+v outside sample bounds [-5, 100]", r)
			}
		})
	}
}

func TestCompute_IgnoresNonFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	r, err := Compute(stackOf([]float32{nan, 1, 2, inf, 3}), Options{Lower: 0, Upper: 100})
	if err != nil {
		t.Fatal(err)
	}
	if r.Min != 1 || r.Max != 3 {
		t.Errorf("range = %+v, want {1 3}", r)
	}

	r, err = Compute(stackOf([]float32{nan, nan}), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if r != (DisplayRange{}) {
		t.Errorf("all-NaN range = %+v, want zero", r)
	}
}

func TestCompute_MaxSamples(t *testing.T) {
	opts := Options{Lower: 0, Upper: 100, MaxSamples: 10}
	r, err := Compute(stackOf(seq(0, 99)), opts)
	if err != nil {
		t.Fatal(err)
	}
	// Stride 10 keeps 0, 10, ..., 90.
	if r.Min != 0 || r.Max != 90 {
		t.Errorf("range = %+v, want {0 90}", r)
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"default", DefaultOptions(), false},
		{"empty method", Options{Lower: 5, Upper: 95}, false},
		{"full range", Options{Lower: 0, Upper: 100}, false},
		{"inverted", Options{Lower: 99, Upper: 1}, true},
		{"above 100", Options{Lower: 1, Upper: 101}, true},
		{"negative", Options{Lower: -1, Upper: 99}, true},
		{"bad method", Options{Lower: 1, Upper: 99, Method: "nearest"}, true},
		{"negative samples", Options{Lower: 1, Upper: 99, MaxSamples: -1}, true},
		{"NaN lower", Options{Lower: math.NaN(), Upper: 99}, true},
		{"NaN upper", Options{Lower: 1, Upper: math.NaN()}, true},
		{"infinite upper", Options{Lower: 1, Upper: math.Inf(1)}, true},
		{"infinite lower", Options{Lower: math.Inf(-1), Upper: 99}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCompute_RejectsNaNPercentile(t *testing.T) {
	_, err := Compute(stackOf(seq(1, 10)), Options{Lower: math.NaN(), Upper: 99})
	if err == nil {
		t.Fatal("Compute() with a NaN percentile should fail")
	}
}

func TestQuantile_NaN(t *testing.T) {
	if got := Quantile([]float64{1, 2, 3}, math.NaN(), MethodLinear); !math.IsNaN(got) {
		t.Errorf("Quantile(NaN) = %v, want NaN", got)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{50, 2.5},
		{100, 4},
		{25, 1.75},
	}
	for _, tt := range tests {
		if got := Percentile(values, tt.p, MethodLinear); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if values[0] != 4 {
		t.Error("Percentile must not reorder its input")
	}
}

func TestDisplayRange_Normalize(t *testing.T) {
	r := DisplayRange{Min: 10, Max: 20}
	tests := []struct {
		v, want float64
	}{
		{10, 0},
		{15, 0.5},
		{20, 1},
		{-100, 0},
		{1e9, 1},
	}
	for _, tt := range tests {
		if got := r.Normalize(tt.v); got != tt.want {
			t.Errorf("Normalize(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
	if got := (DisplayRange{Min: 7, Max: 7}).Normalize(7); got != 0 {
		t.Errorf("degenerate Normalize = %v, want 0", got)
	}
	if !math.IsNaN(r.Normalize(math.NaN())) {
		t.Error("Normalize(NaN) should be NaN")
	}
}
