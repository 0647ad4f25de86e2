package lef

import (
	"math"
	"strconv"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
)

// MacroInfo is the geometry of one standard cell needed by the extractor.
type MacroInfo struct {
	Name   string                `json:"name"`
	Class  string                `json:"class,omitempty"`
	Width  float64               `json:"width"`
	Height float64               `json:"height"`
	Pins   map[string]geom.Point `json:"pins,omitempty"` // pin centre, macro-local
}

// MacroTable maps a cell name to its geometry.
type MacroTable map[string]MacroInfo

// Size returns the width and height of a cell.
func (t MacroTable) Size(cell string) (w, h float64, ok bool) {
	m, ok := t[cell]
	if !ok {
		return 0, 0, false
	}
	return m.Width, m.Height, true
}

// Port returns the local offset of a pin of a cell together with the cell
// size, so that callers can apply the placement orientation.
func (t MacroTable) Port(cell, port string) (geom.Point, float64, float64, bool) {
	m, ok := t[cell]
	if !ok {
		return geom.Point{}, 0, 0, false
	}
	off, ok := m.Pins[port]
	if !ok {
		return geom.Point{}, 0, 0, false
	}
	return off, m.Width, m.Height, true
}

// Merge copies every macro of other into t. Later definitions win.
func (t MacroTable) Merge(other MacroTable) {
	for name, m := range other {
		t[name] = m
	}
}

// Macros converts the parsed library into a MacroTable. Macros without a
// SIZE statement are left out and their names returned; the extractor fails
// only if a component actually uses one of them.
func (l *Library) Macros() (table MacroTable, skipped []string) {
	table = make(MacroTable)

	for _, m := range l.GetMacros() {
		size := m.GetSize()
		if size == nil {
			skipped = append(skipped, m.Name)
			continue
		}

		info := MacroInfo{
			Name:   m.Name,
			Width:  size.Width,
			Height: size.Height,
			Pins:   make(map[string]geom.Point),
		}

		var origin geom.Point
		for _, st := range m.Statements() {
			switch st.Keyword {
			case "CLASS":
				if len(st.Args) > 0 {
					info.Class = st.Args[0]
				}
			case "ORIGIN":
				if nums := numericArgs(st.Args); len(nums) >= 2 {
					origin = geom.Point{X: nums[0], Y: nums[1]}
				}
			}
		}

		for _, pin := range m.GetPins() {
			if c, ok := pinCenter(pin); ok {
				info.Pins[pin.Name] = geom.Point{X: c.X + origin.X, Y: c.Y + origin.Y}
			}
		}

		table[m.Name] = info
	}

	return table, skipped
}

// pinCenter returns the centre of the first RECT or POLYGON of the pin's
// first PORT.
func pinCenter(pin *MacroPin) (geom.Point, bool) {
	for _, item := range pin.Items {
		if item.Port == nil {
			continue
		}
		for _, st := range item.Port.Geometry {
			nums := numericArgs(geometryArgs(st.Args))
			switch st.Keyword {
			case "RECT":
				if len(nums) < 4 {
					continue
				}
				// RECT x1 y1 x2 y2, possibly after extra values
				r := nums[len(nums)-4:]
				return geom.Point{X: (r[0] + r[2]) / 2, Y: (r[1] + r[3]) / 2}, true
			case "POLYGON":
				if len(nums) < 6 || len(nums)%2 != 0 {
					continue
				}
				box := geom.NewRect()
				for i := 0; i+1 < len(nums); i += 2 {
					box.Expand(geom.Point{X: nums[i], Y: nums[i+1]})
				}
				return box.Center(), true
			}
		}
		return geom.Point{}, false
	}
	return geom.Point{}, false
}

// geometryArgs drops a leading MASK n from RECT and POLYGON arguments.
func geometryArgs(args []string) []string {
	if len(args) >= 2 && args[0] == "MASK" {
		return args[2:]
	}
	return args
}

// numericArgs returns the arguments that parse as finite numbers.
func numericArgs(args []string) []float64 {
	var nums []float64
	for _, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		nums = append(nums, v)
	}
	return nums
}
