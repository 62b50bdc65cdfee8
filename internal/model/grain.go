package model

import (
	"image"
	"strings"
)

// GrainClass is the closed set of grain categories the inspector reports.
type GrainClass int

const (
	Unclassified GrainClass = iota
	Whole
	Broken
	Foreign
)

// String returns the class name used in storage and JSON.
func (c GrainClass) String() string {
	switch c {
	case Whole:
		return "whole"
	case Broken:
		return "broken"
	case Foreign:
		return "foreign"
	default:
		return "unclassified"
	}
}

// ParseGrainClass is the inverse of String.
func ParseGrainClass(s string) GrainClass {
	switch s {
	case "whole":
		return Whole
	case "broken":
		return Broken
	case "foreign":
		return Foreign
	default:
		return Unclassified
	}
}

// ClassifyLabel maps raw detector label text to a grain class by keyword
// containment. Labels carry variant suffixes ("sound_rice", "broken_rice_tip"),
// so the match is a substring test, checked in the order sound, broken, foreign.
func ClassifyLabel(label string) GrainClass {
	switch {
	case strings.Contains(label, "sound"):
		return Whole
	case strings.Contains(label, "broken"):
		return Broken
	case strings.Contains(label, "foreign"):
		return Foreign
	default:
		return Unclassified
	}
}

// Grain is one validated detection of the current frame.
type Grain struct {
	Box        image.Rectangle
	Label      string
	Class      GrainClass
	Confidence float64

	// Measured is false when no silhouette could be extracted.
	Measured bool
	LengthPx float64
	LengthMM float64
}
