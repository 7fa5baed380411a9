package discover

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, r)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		filters []string
		exclude []string
		want    bool
	}{
		{"all filters", "/d/sub-01_T1w_preproc_bold.nii.gz", DefaultFilters, nil, true},
		{"missing one filter", "/d/sub-01_T1w_bold.nii.gz", DefaultFilters, nil, false},
		{"filters apply to base name", "/T1w_preproc/bold.nii.gz", DefaultFilters, nil, false},
		{"excluded", "/d/a_bold.nii.gz", []string{"bold"}, []string{"a_"}, false},
		{"no filters", "/d/anything", nil, nil, true},
		{"case sensitive", "/d/t1w.nii", []string{"T1w"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.path, tt.filters, tt.exclude); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"b_bold.nii.gz",
		"a_bold.nii.gz",
		"notes.txt",
		"sub/c_bold.nii.gz",
		"sub/deeper/d_bold.nii.gz",
		"sub/e_bold_mask.nii.gz",
	)
	if err := os.Mkdir(filepath.Join(root, "dir_bold.nii.gz"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := Find(root, []string{"bold", "nii.gz"}, []string{"mask"}, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "a_bold.nii.gz"),
		filepath.Join(root, "b_bold.nii.gz"),
		filepath.Join(root, "sub/c_bold.nii.gz"),
		filepath.Join(root, "sub/deeper/d_bold.nii.gz"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Find() = %v, want %v", got, want)
	}

	got, err = Find(root, []string{"bold"}, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	want = want[:2]
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Find(non-recursive) = %v, want %v", got, want)
	}
}

func TestFind_MissingRoot(t *testing.T) {
	if _, err := Find(filepath.Join(t.TempDir(), "nope"), nil, nil, true); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "x_T1w.nii", "y_T2w.nii")

	t.Run("single file bypasses filters", func(t *testing.T) {
		file := filepath.Join(root, "y_T2w.nii")
		got, err := Resolve(file, []string{"T1w"}, nil, true)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, []string{file}) {
			t.Errorf("Resolve() = %v", got)
		}
	})

	t.Run("directory", func(t *testing.T) {
		got, err := Resolve(root, []string{"T1w"}, nil, true)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || filepath.Base(got[0]) != "x_T1w.nii" {
			t.Errorf("Resolve() = %v", got)
		}
	})

	t.Run("no match", func(t *testing.T) {
		_, err := Resolve(root, []string{"bold"}, nil, true)
		var nf *NoInputFilesError
		if !errors.As(err, &nf) {
			t.Fatalf("Resolve() error = %v, want *NoInputFilesError", err)
		}
		if nf.Root != root {
			t.Errorf("Root = %q, want %q", nf.Root, root)
		}
	})

	t.Run("unsupported file", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "notes_T1w.txt")
		file := filepath.Join(dir, "notes_T1w.txt")
		_, err := Resolve(file, []string{"T1w"}, nil, true)
		var nf *NoInputFilesError
		if !errors.As(err, &nf) {
			t.Fatalf("Resolve() error = %v, want *NoInputFilesError", err)
		}
		if nf.Root != file {
			t.Errorf("Root = %q, want %q", nf.Root, file)
		}
	})
}

func TestSplitList(t *testing.T) {
	got := SplitList(" T1w, ,preproc,bold ")
	want := []string{"T1w", "preproc", "bold"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList() = %v, want %v", got, want)
	}
	if SplitList("") != nil {
		t.Error("empty input should give nil")
	}
}
