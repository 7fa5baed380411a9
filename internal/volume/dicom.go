package volume

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// openDICOM decodes a single or multi-frame DICOM file as a
// (Columns, Rows, Frames) volume.
func openDICOM(path string) (Volume, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("parse DICOM: %w", err)
	}

	rows, err := intElement(ds, tag.Rows)
	if err != nil {
		return nil, err
	}
	cols, err := intElement(ds, tag.Columns)
	if err != nil {
		return nil, err
	}
	if spp, err := intElement(ds, tag.SamplesPerPixel); err == nil && spp != 1 {
		return nil, fmt.Errorf("only single-sample pixel data is supported, got %d samples per pixel", spp)
	}
	signed := false
	if rep, err := intElement(ds, tag.PixelRepresentation); err == nil {
		signed = rep == 1
	}
	scale := scaling{
		slope: floatElement(ds, tag.RescaleSlope, 1),
		inter: floatElement(ds, tag.RescaleIntercept, 0),
	}
	if scale.slope == 0 {
		scale.slope = 1
	}

	pixelElem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("no pixel data: %w", err)
	}
	info, ok := pixelElem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, fmt.Errorf("unexpected pixel data value %T", pixelElem.Value.GetValue())
	}
	if info.IsEncapsulated {
		return nil, fmt.Errorf("encapsulated (compressed) pixel data is not supported")
	}
	if len(info.Frames) == 0 {
		return nil, fmt.Errorf("pixel data has no frames")
	}

	perFrame := rows * cols
	data := make([]float32, perFrame*len(info.Frames))
	for i, fr := range info.Frames {
		if fr.Encapsulated {
			return nil, fmt.Errorf("frame %d is encapsulated", i)
		}
		dst := data[i*perFrame : (i+1)*perFrame]
		if err := copyNativeFrame(dst, fr.NativeData, signed, scale); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}

	return NewMemory([]int{cols, rows, len(info.Frames)}, data)
}

func copyNativeFrame(dst []float32, native frame.INativeFrame, signed bool, scale scaling) error {
	switch nf := native.(type) {
	case *frame.NativeFrame[uint8]:
		return copySamples(dst, nf.RawData, func(v uint8) float64 {
			if signed {
				return float64(int8(v))
			}
			return float64(v)
		}, scale)
	case *frame.NativeFrame[uint16]:
		return copySamples(dst, nf.RawData, func(v uint16) float64 {
			if signed {
				return float64(int16(v))
			}
			return float64(v)
		}, scale)
	case *frame.NativeFrame[uint32]:
		return copySamples(dst, nf.RawData, func(v uint32) float64 {
			if signed {
				return float64(int32(v))
			}
			return float64(v)
		}, scale)
	case *frame.NativeFrame[int8]:
		return copySamples(dst, nf.RawData, func(v int8) float64 { return float64(v) }, scale)
	case *frame.NativeFrame[int16]:
		return copySamples(dst, nf.RawData, func(v int16) float64 { return float64(v) }, scale)
	case *frame.NativeFrame[int32]:
		return copySamples(dst, nf.RawData, func(v int32) float64 { return float64(v) }, scale)
	default:
		return fmt.Errorf("unsupported native frame type %T", native)
	}
}

func copySamples[T any](dst []float32, src []T, conv func(T) float64, scale scaling) error {
	if len(src) != len(dst) {
		return fmt.Errorf("expected %d samples, got %d", len(dst), len(src))
	}
	for i, v := range src {
		dst[i] = scale.apply(conv(v))
	}
	return nil
}

func intElement(ds dicom.Dataset, t tag.Tag) (int, error) {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return 0, fmt.Errorf("missing %s: %w", tagName(t), err)
	}
	switch v := elem.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0], nil
		}
	case []string:
		if len(v) > 0 {
			return strconv.Atoi(strings.TrimSpace(v[0]))
		}
	}
	return 0, fmt.Errorf("invalid %s value", tagName(t))
}

// floatElement returns the first value of a DS element, or def when absent.
func floatElement(ds dicom.Dataset, t tag.Tag, def float64) float64 {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return def
	}
	v, ok := elem.Value.GetValue().([]string)
	if !ok || len(v) == 0 {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v[0]), 64)
	if err != nil {
		return def
	}
	return f
}

func tagName(t tag.Tag) string {
	if info, err := tag.Find(t); err == nil {
		return info.Name
	}
	return t.String()
}
