package main

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"

	"ctslicesto3d/pkg/reconstruction"
)

// errorStyle colours diagnostics red when w is a terminal.
func errorStyle(w io.Writer) reconstruction.Styler {
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	out := termenv.NewOutput(f)
	if out.Profile == termenv.Ascii {
		return nil
	}
	red := out.Color("#f87171")
	return func(s string) string {
		return out.String(s).Foreground(red).Bold().String()
	}
}

// printBanner writes the program header to stderr.
func printBanner() {
	out := termenv.NewOutput(os.Stderr)
	title := out.String("ctslicesto3d").Foreground(out.Color("#818cf8")).Bold()
	sub := out.String("CT slices to bone surface mesh").Faint()
	fmt.Fprintln(os.Stderr, "================================")
	fmt.Fprintln(os.Stderr, title)
	fmt.Fprintln(os.Stderr, sub)
	fmt.Fprintln(os.Stderr, "================================")
}

// printSummary writes the run summary to stderr.
func printSummary(res *reconstruction.Result) {
	out := termenv.NewOutput(os.Stderr)
	ok := out.String("done").Foreground(out.Color("#4ade80")).Bold()
	fmt.Fprintf(os.Stderr, "\nReconstruction %s in %.2f seconds\n", ok, res.Elapsed.Seconds())
	fmt.Fprintf(os.Stderr, "- DICOM directory: %s\n", res.Directory)
	fmt.Fprintf(os.Stderr, "- Heatmaps: %v\n", res.Heatmaps)
	fmt.Fprintf(os.Stderr, "- Mesh: %d triangles, %d vertices, %d/%d closed shells\n",
		res.Mesh.TriangleCount(), res.Mesh.VertexCount(), res.ClosedShells, res.Shells)
	if res.SliceImages > 0 {
		fmt.Fprintf(os.Stderr, "- Slice images: %d\n", res.SliceImages)
	}
	fmt.Fprintf(os.Stderr, "- Output STL: %s\n", res.OutputFile)
}
