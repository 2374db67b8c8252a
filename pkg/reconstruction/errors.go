package reconstruction

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"ctslicesto3d/pkg/dicomio"
	"ctslicesto3d/pkg/locator"
	"ctslicesto3d/pkg/visualization"
	"ctslicesto3d/pkg/volume"
)

// exitCoder is implemented by errors that carry a process exit status.
type exitCoder interface {
	ExitCode() int
}

// ExitCode maps a pipeline error to the process exit status: 0 for nil,
// the error's own code when it has one, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return 1
}

// Styler decorates diagnostic lines, e.g. with terminal colours.
type Styler func(string) string

// Report writes the console diagnostic for err. Known pipeline errors get
// their fixed wording; anything else is printed as "ERROR: <err>".
func Report(w io.Writer, err error, style Styler) {
	if err == nil {
		return
	}
	if style == nil {
		style = func(s string) string { return s }
	}

	var (
		notFound   *locator.NotFoundError
		degenerate *dicomio.DegenerateVolumeError
		sliceIdx   *volume.SliceIndexError
		heatmap    *visualization.HeatmapError
	)
	switch {
	case errors.As(err, &notFound):
		fmt.Fprintln(w, style("ERROR: could not find a DICOM directory with .dcm files in expected locations:"))
		for _, c := range notFound.Candidates {
			fmt.Fprintln(w, "  -", c)
		}
	case errors.As(err, &degenerate):
		fmt.Fprintln(w, style("ERROR: reader did not load DICOM images correctly. Data extent: "+degenerate.Extent.String()))
	case errors.As(err, &sliceIdx):
		fmt.Fprintln(w, style(fmt.Sprintf("ERROR: computed mid slice index is out of range %d", sliceIdx.Index)))
	case errors.As(err, &heatmap):
		fmt.Fprintln(w, style(fmt.Sprintf("ERROR plotting %s slice. ArrayDicom.shape: %s", heatmap.Label, heatmap.ShapeString())))
	default:
		fmt.Fprintln(w, style("ERROR: "+err.Error()))
	}
}

// FormatTuple renders floats as a parenthesised tuple, keeping a decimal
// point on integral values: (0.5, 0.5, 1.0).
func FormatTuple(vals ...float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
