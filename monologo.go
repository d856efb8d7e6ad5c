package monologo

import "image"

const (
	// Size is the edge length of the square output bitmap.
	Size = 128
	// RowBytes is the number of packed bytes per bitmap row.
	RowBytes = Size / 8
	// PackedLen is the length of a packed bitmap.
	PackedLen = Size * RowBytes

	DefaultThreshold = 128
	DefaultOutput    = "src/images/PapyrixLogo.h"
)

type Options struct {
	// Clockwise rotation applied before anything else.
	Rotate Rotation
	// How color pixels are reduced to a single 8-bit intensity.
	Gray GrayMethod
	// Binarization cutoff. Pixels at or above it are on (white).
	// Not range checked: values above 255 turn everything off, values
	// at or below 0 turn everything on.
	Threshold int
	// Swaps polarity: pixels below the threshold are on.
	Invert bool
}

func DefaultOptions() Options {
	return Options{
		Rotate:    Rotate0,
		Gray:      GrayLuma,
		Threshold: DefaultThreshold,
		Invert:    false,
	}
}

// Result holds every intermediate of a conversion so callers can inspect
// or re-threshold the canvas without redoing the resize.
type Result struct {
	Canvas *image.Gray
	Plane  BitPlane
	Packed []byte
}

// Convert runs the whole pipeline on a decoded image.
func Convert(src image.Image, opt Options) (*Result, error) {
	canvas, err := Normalize(src, opt.Rotate, opt.Gray)
	if err != nil {
		return nil, err
	}
	plane := Binarize(canvas, opt.Threshold, opt.Invert)
	packed := Pack(plane)
	return &Result{
		Canvas: canvas,
		Plane:  plane,
		Packed: packed,
	}, nil
}
