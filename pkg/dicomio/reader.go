// Package dicomio reads a directory of DICOM slices into a scalar volume.
package dicomio

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"ctslicesto3d/internal/models"
	"ctslicesto3d/pkg/locator"
)

// DegenerateVolumeError is returned when the extent of a loaded series
// does not describe a grid with three strictly positive dimensions.
type DegenerateVolumeError struct {
	Extent models.Extent
}

func (e *DegenerateVolumeError) Error() string {
	return fmt.Sprintf("reader did not load DICOM images correctly. Data extent: %s", e.Extent)
}

// ExitCode implements the exit status contract of the command.
func (e *DegenerateVolumeError) ExitCode() int { return 1 }

// CheckDims derives the pixel-dimension triple from an extent and fails
// unless all three values are strictly positive.
func CheckDims(extent models.Extent) ([3]int, error) {
	dims := extent.Dims()
	if dims[0] <= 0 || dims[1] <= 0 || dims[2] <= 0 {
		return dims, &DegenerateVolumeError{Extent: extent}
	}
	return dims, nil
}

// Reader loads DICOM series from disk.
type Reader struct {
	log *logrus.Logger
}

// NewReader creates a reader logging to log.
func NewReader(log *logrus.Logger) *Reader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reader{log: log}
}

// ReadSeries decodes every DICOM file in dir and stacks them into a volume.
// Files that cannot be decoded are skipped. When nothing usable is found
// the returned volume has an empty extent and no error; callers check the
// extent with CheckDims.
func (r *Reader) ReadSeries(dir string) (*models.Volume, error) {
	files, err := locator.ListDICOMFiles(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", dir)
	}

	slices := make([]*models.Slice, 0, len(files))
	for _, path := range files {
		s, err := DecodeFile(path)
		if err != nil {
			r.log.Warnf("Skipping %s: %v", filepath.Base(path), err)
			continue
		}
		r.log.Debugf("Decoded %s (%dx%d, instance %d)", s.Filename, s.Cols, s.Rows, s.InstanceNumber)
		slices = append(slices, s)
	}

	vol, err := Assemble(slices)
	if err != nil {
		return nil, errors.Wrapf(err, "assemble series in %s", dir)
	}

	r.log.Infof("Loaded %d slices from %s", len(slices), dir)
	return vol, nil
}

// DecodeFile parses a single DICOM file into a slice.
func DecodeFile(path string) (*models.Slice, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "parse dicom")
	}
	return decodeDataset(ds, filepath.Base(path))
}

func decodeDataset(ds dicom.Dataset, name string) (*models.Slice, error) {
	s := &models.Slice{
		Filename:     name,
		PixelSpacing: [2]float64{1, 1},
	}

	rows, ok := intValue(ds, tag.Rows)
	if !ok || rows <= 0 {
		return nil, errors.New("missing or invalid Rows")
	}
	cols, ok := intValue(ds, tag.Columns)
	if !ok || cols <= 0 {
		return nil, errors.New("missing or invalid Columns")
	}
	s.Rows, s.Cols = rows, cols

	if spp, ok := intValue(ds, tag.SamplesPerPixel); ok && spp != 1 {
		return nil, errors.Errorf("unsupported SamplesPerPixel %d", spp)
	}

	signed := false
	if pr, ok := intValue(ds, tag.PixelRepresentation); ok && pr == 1 {
		signed = true
	}
	bits := 16
	if ba, ok := intValue(ds, tag.BitsAllocated); ok && ba > 0 {
		bits = ba
	}

	slope, intercept := 1.0, 0.0
	if v, ok := floatValues(ds, tag.RescaleSlope); ok && len(v) > 0 && v[0] != 0 {
		slope = v[0]
	}
	if v, ok := floatValues(ds, tag.RescaleIntercept); ok && len(v) > 0 {
		intercept = v[0]
	}

	if v, ok := intValue(ds, tag.InstanceNumber); ok {
		s.InstanceNumber = v
	}
	if v, ok := floatValues(ds, tag.ImagePositionPatient); ok && len(v) == 3 {
		copy(s.Position[:], v)
		s.HasPosition = true
	}
	if v, ok := floatValues(ds, tag.ImageOrientationPatient); ok && len(v) == 6 {
		copy(s.Orientation[:], v)
		s.HasOrientation = true
	}
	if v, ok := floatValues(ds, tag.SliceLocation); ok && len(v) > 0 {
		s.SliceLocation = v[0]
		s.HasSliceLocation = true
	}
	if v, ok := floatValues(ds, tag.PixelSpacing); ok && len(v) == 2 && v[0] > 0 && v[1] > 0 {
		s.PixelSpacing = [2]float64{v[0], v[1]}
	}
	if v, ok := floatValues(ds, tag.SliceThickness); ok && len(v) > 0 {
		s.Thickness = v[0]
	}
	if v, ok := floatValues(ds, tag.SpacingBetweenSlices); ok && len(v) > 0 {
		s.SpacingBetweenSlices = v[0]
	}

	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, errors.New("no PixelData element")
	}
	info, ok := pixelDataInfo(el.Value.GetValue())
	if !ok || len(info.Frames) == 0 {
		return nil, errors.New("PixelData holds no frames")
	}

	fr := info.Frames[0]
	if fr.Encapsulated {
		return nil, errors.New("encapsulated (compressed) pixel data is not supported")
	}
	raw, err := nativeSamples(fr.NativeData, signed, bits)
	if err != nil {
		return nil, err
	}
	if len(raw) < rows*cols {
		return nil, errors.Errorf("PixelData has %d samples, want %d", len(raw), rows*cols)
	}

	s.Pixels = make([]float64, rows*cols)
	for i := range s.Pixels {
		s.Pixels[i] = raw[i]*slope + intercept
	}
	return s, nil
}

func pixelDataInfo(v interface{}) (dicom.PixelDataInfo, bool) {
	switch info := v.(type) {
	case dicom.PixelDataInfo:
		return info, true
	case *dicom.PixelDataInfo:
		if info != nil {
			return *info, true
		}
	}
	return dicom.PixelDataInfo{}, false
}

type sample interface {
	~uint8 | ~uint16 | ~uint32
}

func nativeSamples(nf frame.INativeFrame, signed bool, bits int) ([]float64, error) {
	switch f := nf.(type) {
	case *frame.NativeFrame[uint8]:
		return toFloats(f.RawData, signed, bits), nil
	case *frame.NativeFrame[uint16]:
		return toFloats(f.RawData, signed, bits), nil
	case *frame.NativeFrame[uint32]:
		return toFloats(f.RawData, signed, bits), nil
	case nil:
		return nil, errors.New("frame has no native data")
	default:
		return nil, errors.Errorf("unsupported native frame type %T", nf)
	}
}

// toFloats widens raw samples, reinterpreting them as two's complement
// of the allocated width when the pixel representation is signed.
func toFloats[I sample](raw []I, signed bool, bits int) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = sampleValue(int64(v), signed, bits)
	}
	return out
}

func sampleValue(v int64, signed bool, bits int) float64 {
	if !signed {
		return float64(v)
	}
	switch bits {
	case 8:
		return float64(int8(uint8(v)))
	case 32:
		return float64(int32(uint32(v)))
	default:
		return float64(int16(uint16(v)))
	}
}

func intValue(ds dicom.Dataset, t tag.Tag) (int, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return 0, false
	}
	switch v := el.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0], true
		}
	case []string:
		if len(v) > 0 {
			n, err := strconv.Atoi(strings.TrimSpace(v[0]))
			if err == nil {
				return n, true
			}
		}
	case []float64:
		if len(v) > 0 {
			return int(v[0]), true
		}
	}
	return 0, false
}

// floatValues reads a multi-valued numeric element. Decimal strings are
// stored by the parser as strings and may carry padding.
func floatValues(ds dicom.Dataset, t tag.Tag) ([]float64, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return nil, false
	}
	switch v := el.Value.GetValue().(type) {
	case []float64:
		return v, len(v) > 0
	case []int:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out, len(out) > 0
	case []string:
		var out []float64
		for _, s := range v {
			for _, part := range strings.Split(s, "\\") {
				part = strings.TrimSpace(strings.Trim(part, "\x00"))
				if part == "" {
					continue
				}
				f, err := strconv.ParseFloat(part, 64)
				if err != nil {
					return nil, false
				}
				out = append(out, f)
			}
		}
		return out, len(out) > 0
	}
	return nil, false
}
