package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"log"
	"math"
	"os"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	_ "github.com/sergeymakinen/go-bmp"
	"github.com/setanarut/monologo"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type ThresholdMethod int

const (
	ThresholdFixed ThresholdMethod = iota
	ThresholdOtsu
	ThresholdKMeans
	ThresholdDominantColor
)

func (m ThresholdMethod) String() string {
	switch m {
	case ThresholdOtsu:
		return "otsu"
	case ThresholdKMeans:
		return "kmeans"
	case ThresholdDominantColor:
		return "dominantcolor"
	default:
		return "fixed"
	}
}

func ParseThresholdMethod(s string) (ThresholdMethod, error) {
	for _, m := range []ThresholdMethod{ThresholdFixed, ThresholdOtsu, ThresholdKMeans, ThresholdDominantColor} {
		if s == m.String() {
			return m, nil
		}
	}
	if s == "" {
		return ThresholdFixed, nil
	}
	return ThresholdFixed, fmt.Errorf("%w: unknown threshold method %q (want fixed, otsu, kmeans or dominantcolor)", monologo.ErrInvalidArgument, s)
}

// EstimateThreshold picks a binarization cutoff for canvas. ThresholdFixed,
// and any estimator that cannot split the canvas into two classes, returns
// fallback.
func EstimateThreshold(canvas *image.Gray, method ThresholdMethod, fallback int) int {
	var (
		t  int
		ok bool
	)
	switch method {
	case ThresholdOtsu:
		t, ok = OtsuThreshold(canvas)
	case ThresholdKMeans:
		t, ok = KMeansThreshold(canvas)
	case ThresholdDominantColor:
		t, ok = DominantThreshold(canvas)
	default:
		return fallback
	}
	if !ok {
		log.Printf("threshold warning: %s could not split the image in two, falling back to %d", method, fallback)
		return fallback
	}
	return t
}

func grayValues(canvas *image.Gray) []float64 {
	b := canvas.Bounds()
	values := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			values = append(values, float64(canvas.GrayAt(x, y).Y))
		}
	}
	return values
}

// OtsuThreshold returns the cutoff t maximizing the between-class variance
// of the classes [0,t) and [t,255].
func OtsuThreshold(canvas *image.Gray) (int, bool) {
	values := grayValues(canvas)
	if len(values) == 0 {
		return 0, false
	}
	slices.Sort(values)
	dividers := floats.Span(make([]float64, 257), 0, 256)
	hist := stat.Histogram(nil, dividers, values, nil)
	levels := floats.Span(make([]float64, 256), 0, 255)

	total := floats.Sum(hist)
	sumAll := floats.Dot(hist, levels)

	best, bestT := 0.0, -1
	w0, sum0 := 0.0, 0.0
	for t := 1; t < 256; t++ {
		w0 += hist[t-1]
		sum0 += levels[t-1] * hist[t-1]
		w1 := total - w0
		if w0 == 0 || w1 == 0 {
			continue
		}
		d := sum0/w0 - (sumAll-sum0)/w1
		if v := w0 * w1 * d * d; v > best {
			best, bestT = v, t
		}
	}
	return bestT, bestT > 0
}

// maxKMeansSamples bounds the number of observations handed to kmeans.
const maxKMeansSamples = 12000

// sampleStride is the smallest stride that picks at most limit of n values.
func sampleStride(n, limit int) int {
	if n <= limit {
		return 1
	}
	return (n + limit - 1) / limit
}

// KMeansThreshold splits gray values into two clusters and returns the
// midpoint of their centers.
func KMeansThreshold(canvas *image.Gray) (int, bool) {
	values := grayValues(canvas)
	if len(values) == 0 {
		return 0, false
	}

	step := sampleStride(len(values), maxKMeansSamples)
	dataset := make(clusters.Observations, 0, len(values)/step+1)
	for i := 0; i < len(values); i += step {
		dataset = append(dataset, clusters.Coordinates{values[i] / 255.0})
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, 2)
	if err != nil {
		log.Println("threshold warning: kmeans:", err)
		return 0, false
	}
	centers := make([]float64, 0, 2)
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) == 0 {
			continue
		}
		centers = append(centers, c.Center[0]*255)
	}
	if len(centers) < 2 || math.Abs(centers[0]-centers[1]) < 1 {
		return 0, false
	}
	return int(math.Round((centers[0] + centers[1]) / 2)), true
}

// DominantThreshold finds the two dominant colors and returns the midpoint
// of their luma.
func DominantThreshold(canvas *image.Gray) (int, bool) {
	found := dominantcolor.FindWeight(canvas, 2)
	if len(found) < 2 {
		return 0, false
	}
	a := color.GrayModel.Convert(found[0].RGBA).(color.Gray).Y
	b := color.GrayModel.Convert(found[1].RGBA).(color.Gray).Y
	if a == b {
		return 0, false
	}
	return int(math.Round((float64(a) + float64(b)) / 2)), true
}

// ReadImage decodes the image at path. A missing file is reported as
// monologo.ErrInputNotFound, everything else as monologo.ErrImageDecode.
func ReadImage(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", monologo.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", monologo.ErrImageDecode, err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", monologo.ErrImageDecode, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", monologo.ErrImageDecode, path, err)
	}
	return img, nil
}

// SaveImage encodes img as PNG in memory and then writes it to filename, so
// an encoding failure never leaves a truncated file.
func SaveImage(img image.Image, filename string) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return os.WriteFile(filename, buf.Bytes(), 0o644)
}
