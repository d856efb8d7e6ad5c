package monologo

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/gift"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

// Rotation is a clockwise rotation in degrees.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

func ParseRotation(deg int) (Rotation, error) {
	switch r := Rotation(deg); r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return r, nil
	}
	return Rotate0, fmt.Errorf("%w: rotation must be one of 0, 90, 180, 270, got %d", ErrInvalidArgument, deg)
}

// gift rotates counter-clockwise.
func (r Rotation) filter() gift.Filter {
	switch r {
	case Rotate90:
		return gift.Rotate270()
	case Rotate180:
		return gift.Rotate180()
	case Rotate270:
		return gift.Rotate90()
	default:
		return nil
	}
}

type GrayMethod int

const (
	// ITU-R 601 luma, 0.299R + 0.587G + 0.114B.
	GrayLuma GrayMethod = iota
	// CIE L* lightness scaled to 0..255.
	GrayLightness
)

func (m GrayMethod) String() string {
	switch m {
	case GrayLightness:
		return "lightness"
	default:
		return "luma"
	}
}

func ParseGrayMethod(s string) (GrayMethod, error) {
	switch s {
	case "", "luma":
		return GrayLuma, nil
	case "lightness":
		return GrayLightness, nil
	}
	return GrayLuma, fmt.Errorf("%w: unknown gray method %q (want luma or lightness)", ErrInvalidArgument, s)
}

// Rotate returns src rotated clockwise by r. The result is sized to hold
// the whole rotated image; nothing is cropped. Rotate0 returns src as is.
// Any other rotation of a non-gray source drops its alpha, see ToGray.
func Rotate(src image.Image, r Rotation) image.Image {
	f := r.filter()
	if f == nil {
		return src
	}
	g := gift.New(f)
	var dst draw.Image
	if _, ok := src.(*image.Gray); ok {
		dst = image.NewGray(g.Bounds(src.Bounds()))
	} else {
		src = opaque(src)
		dst = image.NewNRGBA64(g.Bounds(src.Bounds()))
	}
	g.Draw(dst, src)
	return dst
}

// ToGray reduces src to 8-bit intensity. A *image.Gray source is returned
// unchanged whatever the method. Alpha is ignored: every pixel is read as
// its stored color at full opacity, so a transparent white background stays
// white.
func ToGray(src image.Image, m GrayMethod) *image.Gray {
	if gray, ok := src.(*image.Gray); ok {
		return gray
	}
	flat := opaque(src)
	if m == GrayLightness {
		return lightness(flat)
	}
	g := gift.New(gift.Grayscale())
	dst := image.NewGray(g.Bounds(flat.Bounds()))
	g.Draw(dst, flat)
	return dst
}

func lightness(src *image.NRGBA64) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := src.NRGBA64At(x, y)
			l, _, _ := colorful.Color{
				R: float64(c.R) / 0xffff,
				G: float64(c.G) / 0xffff,
				B: float64(c.B) / 0xffff,
			}.Lab()
			dst.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: uint8(max(0, min(255, math.Round(l*255))))})
		}
	}
	return dst
}

// opaque copies src into a zero-origin NRGBA64 with every alpha set to
// full, keeping the un-premultiplied color of each pixel.
func opaque(src image.Image) *image.NRGBA64 {
	b := src.Bounds()
	dst := image.NewNRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetNRGBA64(x-b.Min.X, y-b.Min.Y, straight(src.At(x, y)))
		}
	}
	return dst
}

// straight returns c un-premultiplied with alpha forced to 0xffff.
// Straight-alpha colors keep their channels even when fully transparent;
// a premultiplied color with zero alpha has nothing left and reads as black.
func straight(c color.Color) color.NRGBA64 {
	switch c := c.(type) {
	case color.NRGBA:
		return color.NRGBA64{R: uint16(c.R) * 0x101, G: uint16(c.G) * 0x101, B: uint16(c.B) * 0x101, A: 0xffff}
	case color.NRGBA64:
		c.A = 0xffff
		return c
	}
	r, g, bl, a := c.RGBA()
	if a == 0 {
		return color.NRGBA64{A: 0xffff}
	}
	return color.NRGBA64{
		R: uint16(r * 0xffff / a),
		G: uint16(g * 0xffff / a),
		B: uint16(bl * 0xffff / a),
		A: 0xffff,
	}
}

// FitSize scales a w x h box to fit inside Size x Size keeping its aspect
// ratio. The longer side becomes Size; the shorter one is rounded and never
// drops below 1.
func FitSize(w, h int) (int, int) {
	if w > h {
		return Size, max(1, int(math.Round(float64(Size*h)/float64(w))))
	}
	return max(1, int(math.Round(float64(Size*w)/float64(h)))), Size
}

// Resize resamples src to exactly w x h with a 3-lobe Lanczos filter.
func Resize(src *image.Gray, w, h int) *image.Gray {
	g := gift.New(gift.Resize(w, h, gift.LanczosResampling))
	dst := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}

// Compose pastes src centered on a white Size x Size canvas. Odd leftovers
// put the extra pixel on the right or bottom.
func Compose(src *image.Gray) *image.Gray {
	canvas := image.NewGray(image.Rect(0, 0, Size, Size))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Gray{Y: 255}), image.Point{}, draw.Src)

	b := src.Bounds()
	off := image.Pt((Size-b.Dx())/2, (Size-b.Dy())/2)
	draw.Draw(canvas, image.Rectangle{Min: off, Max: off.Add(b.Size())}, src, b.Min, draw.Src)
	return canvas
}

// Normalize rotates, grayscales, resizes and centers src, producing the
// Size x Size canvas the binarizer works on.
func Normalize(src image.Image, r Rotation, m GrayMethod) (*image.Gray, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrImageDecode)
	}
	gray := ToGray(Rotate(src, r), m)
	b := gray.Bounds()
	w, h := FitSize(b.Dx(), b.Dy())
	return Compose(Resize(gray, w, h)), nil
}
