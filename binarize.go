package monologo

import "image"

// BitPlane is a Size x Size grid of on/off pixels indexed [row][col].
// On means white in the emitted bitmap.
type BitPlane [Size][Size]bool

// Count returns the number of on pixels.
func (p *BitPlane) Count() int {
	n := 0
	for y := range Size {
		for x := range Size {
			if p[y][x] {
				n++
			}
		}
	}
	return n
}

// Binarize thresholds a Size x Size canvas. Without invert a pixel is on
// when g >= threshold; with invert it is on when g < threshold, so a pixel
// exactly at the threshold is on in the first case and off in the second.
func Binarize(canvas *image.Gray, threshold int, invert bool) BitPlane {
	var plane BitPlane
	b := canvas.Bounds()
	for y := range min(Size, b.Dy()) {
		for x := range min(Size, b.Dx()) {
			g := int(canvas.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			if invert {
				plane[y][x] = g < threshold
			} else {
				plane[y][x] = g >= threshold
			}
		}
	}
	return plane
}
