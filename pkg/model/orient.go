package model

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
)

// Orientation is one of the eight placement orientations of a cell.
type Orientation int

const (
	North     Orientation = iota // N: no rotation
	South                        // S: rotated 180
	West                         // W: rotated 90 counter-clockwise
	East                         // E: rotated 270 counter-clockwise
	FlipNorth                    // FN: mirrored about the Y axis
	FlipSouth                    // FS: mirrored about the X axis
	FlipWest                     // FW: mirrored, then rotated 90
	FlipEast                     // FE: mirrored, then rotated 270
)

var orientNames = [...]string{"N", "S", "W", "E", "FN", "FS", "FW", "FE"}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientNames) {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientNames[o]
}

// ParseOrientation converts a placement keyword (N, S, FW, ...) to an
// Orientation. Matching is case-insensitive.
func ParseOrientation(s string) (Orientation, error) {
	up := strings.ToUpper(s)
	for i, name := range orientNames {
		if name == up {
			return Orientation(i), nil
		}
	}
	return North, fmt.Errorf("unknown orientation %q", s)
}

// Rotated reports whether the orientation swaps width and height.
func (o Orientation) Rotated() bool {
	switch o {
	case West, East, FlipWest, FlipEast:
		return true
	}
	return false
}

// Transform maps an offset given in the macro's local frame (w x h, origin at
// the lower-left corner) to the offset inside the placed footprint.
func (o Orientation) Transform(local geom.Point, w, h float64) geom.Point {
	x, y := local.X, local.Y
	switch o {
	case South:
		return geom.Point{X: w - x, Y: h - y}
	case West:
		return geom.Point{X: h - y, Y: x}
	case East:
		return geom.Point{X: y, Y: w - x}
	case FlipNorth:
		return geom.Point{X: w - x, Y: y}
	case FlipSouth:
		return geom.Point{X: x, Y: h - y}
	case FlipWest:
		return geom.Point{X: y, Y: x}
	case FlipEast:
		return geom.Point{X: h - y, Y: w - x}
	default:
		return geom.Point{X: x, Y: y}
	}
}
