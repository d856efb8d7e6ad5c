package utils

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/setanarut/monologo"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

// svgRasterSize is the longer side of a rasterized SVG. It oversamples the
// canvas so the Lanczos resize still has detail to work with.
const svgRasterSize = 4 * monologo.Size

func init() {
	image.RegisterFormat("svg", "<svg", decodeSVG, decodeSVGConfig)
	image.RegisterFormat("svg", "<?xml", decodeSVG, decodeSVGConfig)
}

func readSVG(r io.Reader) (*oksvg.SvgIcon, int, int, error) {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, 0, 0, err
	}
	vb := icon.ViewBox
	if vb.W <= 0 || vb.H <= 0 {
		return nil, 0, 0, errors.New("svg: missing viewBox or size")
	}
	scale := svgRasterSize / max(vb.W, vb.H)
	w := max(1, int(math.Round(vb.W*scale)))
	h := max(1, int(math.Round(vb.H*scale)))
	return icon, w, h, nil
}

// decodeSVG rasterizes an SVG document over a white background, the color
// of the canvas it ends up on.
func decodeSVG(r io.Reader) (image.Image, error) {
	icon, w, h, err := readSVG(r)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	icon.SetTarget(0, 0, float64(w), float64(h))
	icon.Draw(rasterx.NewDasher(w, h, rasterx.NewScannerGV(w, h, img, img.Bounds())), 1)
	return img, nil
}

func decodeSVGConfig(r io.Reader) (image.Config, error) {
	_, w, h, err := readSVG(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.RGBAModel, Width: w, Height: h}, nil
}
