package monologo

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Preview renders plane as a black and white image, each pixel blown up
// to a scale x scale block.
func Preview(plane BitPlane, scale int) *image.Gray {
	scale = max(1, scale)
	src := image.NewGray(image.Rect(0, 0, Size, Size))
	for y := range Size {
		for x := range Size {
			if plane[y][x] {
				src.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	if scale == 1 {
		return src
	}
	dst := image.NewGray(image.Rect(0, 0, Size*scale, Size*scale))
	draw.NearestNeighbor.Scale(dst, dst.Rect, src, src.Bounds(), draw.Src, nil)
	return dst
}
