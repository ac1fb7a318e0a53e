package geometry

import (
	"bufio"
	"fmt"
	"io"
)

// WriteXYZ writes one "x y z" line per point, in millimetres.
func WriteXYZ(w io.Writer, points []Point) error {
	bw := bufio.NewWriter(w)
	for _, p := range points {
		if _, err := fmt.Fprintf(bw, "%.3f %.3f %.3f\n", p.Pos.X, p.Pos.Y, p.Pos.Z); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WritePLY writes an ASCII PLY file. Each vertex keeps the raw base, tilt
// and distance it was projected from.
func WritePLY(w io.Writer, s Session) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat ascii 1.0\n")
	fmt.Fprintf(bw, "comment scan %s\n", s.ID)
	fmt.Fprintf(bw, "element vertex %d\n", len(s.Points))
	fmt.Fprintf(bw, "property float x\nproperty float y\nproperty float z\n")
	fmt.Fprintf(bw, "property int base\nproperty int tilt\nproperty int distance\n")
	fmt.Fprintf(bw, "end_header\n")
	for _, p := range s.Points {
		fmt.Fprintf(bw, "%.3f %.3f %.3f %d %d %d\n", p.Pos.X, p.Pos.Y, p.Pos.Z, p.Base, p.Tilt, p.Distance)
	}
	return bw.Flush()
}
