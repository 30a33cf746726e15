package tensor

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// largestBelowOne is the greatest float32 strictly less than 1.
var largestBelowOne = math.Nextafter32(1, 0)

// Image is a dense float32 tensor laid out row-major over its shape, usually
// (channels, height, width).
type Image struct {
	Data  []float32
	Shape []int
}

// New allocates a zeroed Image of the given shape. Zero dimensions are
// allowed; negative ones are an error.
func New(shape ...int) (*Image, error) {
	total := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("tensor: invalid shape %v", shape)
		}
		total *= d
	}

	return &Image{
		Data:  make([]float32, total),
		Shape: append([]int(nil), shape...),
	}, nil
}

// Rand allocates an Image of the given shape filled with values drawn
// uniformly from [0, 1) using src.
func Rand(src rand.Source, shape ...int) (*Image, error) {
	img, err := New(shape...)
	if err != nil {
		return nil, err
	}

	u := distuv.Uniform{Min: 0, Max: 1, Src: src}
	for i := range img.Data {
		v := float32(u.Rand())
		// float64 values just below 1 round up in float32.
		if v >= 1 {
			v = largestBelowOne
		}
		img.Data[i] = v
	}

	return img, nil
}

// Len returns the number of elements.
func (t *Image) Len() int {
	return len(t.Data)
}

// Equal reports whether t and o have the same shape and bit-identical data.
func (t *Image) Equal(o *Image) bool {
	if len(t.Shape) != len(o.Shape) || len(t.Data) != len(o.Data) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != o.Shape[i] {
			return false
		}
	}
	for i := range t.Data {
		if math.Float32bits(t.Data[i]) != math.Float32bits(o.Data[i]) {
			return false
		}
	}
	return true
}

func (t *Image) String() string {
	return fmt.Sprintf("Image%v", t.Shape)
}
