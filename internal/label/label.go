// Package label splits a FreeSurfer ASCII atlas label into one label file
// per visual area.
package label

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// File is a parsed ASCII label. Lines keep their original text.
type File struct {
	Path   string
	Header string
	Lines  []Line
}

// Line is one vertex line and the integer area id of its last field.
type Line struct {
	Text  string
	Value int
}

// Area names one atlas value.
type Area struct {
	ID   int
	Name string
}

// Atlas maps label values to area names.
type Atlas []Area

// Benson14 is the visual area atlas of the Benson 2014 retinotopy template.
var Benson14 = Atlas{
	{1, "V1"}, {2, "V2"}, {3, "V3"}, {4, "hV4"},
	{5, "VO1"}, {6, "VO2"}, {7, "LO1"}, {8, "LO2"},
	{9, "TO1"}, {10, "TO2"}, {11, "V3b"}, {12, "V3a"},
}

// AtlasFromMap builds an atlas from id to name pairs, ordered by id.
func AtlasFromMap(areas map[int]string) Atlas {
	atlas := make(Atlas, 0, len(areas))
	for id, name := range areas {
		atlas = append(atlas, Area{ID: id, Name: name})
	}
	sort.Slice(atlas, func(i, j int) bool { return atlas[i].ID < atlas[j].ID })
	return atlas
}

// Read parses an ASCII label file: a header line, a count line, then one
// vertex per line whose last space separated field holds the value.
func Read(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lf := &File{Path: path}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		text := sc.Text()
		switch {
		case n == 1:
			lf.Header = text
			continue
		case n == 2:
			continue
		case strings.TrimSpace(text) == "":
			continue
		}
		fields := strings.Split(strings.TrimRight(text, "\r"), " ")
		raw := fields[len(fields)-1]
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid label value %q", path, n, raw)
		}
		lf.Lines = append(lf.Lines, Line{Text: text, Value: int(v)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if n < 2 {
		return nil, fmt.Errorf("%s: missing label header", path)
	}
	return lf, nil
}

// Output is one generated label file.
type Output struct {
	Name    string
	Area    Area
	Count   int
	Content string
}

// Header returns the first line written to every output label.
func Header(subject string) string {
	return fmt.Sprintf("#!ascii label  , from subject %s vox2ras=TkReg", subject)
}

// FileName returns the output name of area for a hemisphere.
func FileName(hemi, prefix string, area Area) string {
	return fmt.Sprintf("%s.%s_%s.label", hemi, prefix, area.Name)
}

// Split returns one output per atlas area in ascending id order, each holding
// the vertex lines of f whose value equals the area id.
func Split(f *File, subject, hemi, prefix string, atlas Atlas) []Output {
	areas := append(Atlas(nil), atlas...)
	sort.Slice(areas, func(i, j int) bool { return areas[i].ID < areas[j].ID })

	byValue := make(map[int][]string)
	for _, l := range f.Lines {
		byValue[l.Value] = append(byValue[l.Value], l.Text)
	}

	out := make([]Output, 0, len(areas))
	for _, a := range areas {
		lines := byValue[a.ID]
		var b strings.Builder
		b.WriteString(Header(subject))
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%d\n", len(lines))
		for _, l := range lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
		out = append(out, Output{
			Name:    FileName(hemi, prefix, a),
			Area:    a,
			Count:   len(lines),
			Content: b.String(),
		})
	}
	return out
}

// WriteAll writes outputs into dir, creating it if needed.
func WriteAll(dir string, outputs []Output) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create label directory: %w", err)
	}
	for _, o := range outputs {
		if err := os.WriteFile(filepath.Join(dir, o.Name), []byte(o.Content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", o.Name, err)
		}
	}
	return nil
}
