// Package modify applies free-text scale instructions such as
// "increase length by 10 mm" to stored meshes.
package modify

import (
	"regexp"
	"strconv"
	"strings"
)

// instructionRe is case-sensitive; "Increase" does not match.
var instructionRe = regexp.MustCompile(`(increase|decrease).+by\s+(\d+(?:\.\d+)?)\s*mm`)

type Action string

const (
	Increase Action = "increase"
	Decrease Action = "decrease"
)

// Axis is the scaling target picked from keywords in the instruction.
type Axis int

const (
	Uniform Axis = iota
	AxisX
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "uniform"
	}
}

// Instruction is a parsed modification request. The number is read as a
// percentage despite the "mm" unit in the text.
type Instruction struct {
	Action Action
	Value  float64
	Axis   Axis
}

// Delta is Value/100.
func (in Instruction) Delta() float64 { return in.Value / 100 }

// Scale is the signed factor: 1+delta for increase, 1-delta for decrease.
func (in Instruction) Scale() float64 {
	if in.Action == Increase {
		return 1 + in.Delta()
	}
	return 1 - in.Delta()
}

// Parse extracts an Instruction from text. ok is false when the pattern
// does not match.
func Parse(text string) (Instruction, bool) {
	m := instructionRe.FindStringSubmatch(text)
	if m == nil {
		return Instruction{}, false
	}
	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Instruction{}, false
	}
	return Instruction{
		Action: Action(m[1]),
		Value:  v,
		Axis:   axisOf(text),
	}, true
}

// axisOf checks "length", "width", "height" in that order.
func axisOf(text string) Axis {
	switch {
	case strings.Contains(text, "length"):
		return AxisX
	case strings.Contains(text, "width"):
		return AxisY
	case strings.Contains(text, "height"):
		return AxisZ
	default:
		return Uniform
	}
}
