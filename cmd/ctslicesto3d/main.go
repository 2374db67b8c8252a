// Command ctslicesto3d turns a directory of CT DICOM slices into a bone
// surface mesh: it plots the middle slice before and after thresholding,
// shows the extracted surface in a 3D window and writes it as binary STL.
package main

import (
	"os"

	"ctslicesto3d/pkg/reconstruction"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		reconstruction.Report(os.Stdout, err, errorStyle(os.Stdout))
		os.Exit(reconstruction.ExitCode(err))
	}
}
