package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
)

// Depth is the distance of a pixel from the sensor in millimeters.
type Depth uint16

// MaxDepth is the largest representable depth. Aligned depth rasters use it for pixels
// with no correspondence, since zero is a legitimate near reading.
const MaxDepth = Depth(math.MaxUint16)

// DepthMap is a width x height grid of depths stored in row-major order.
type DepthMap struct {
	width  int
	height int

	data []Depth

	minReliable Depth
	maxReliable Depth
}

// NewEmptyDepthMap returns a zeroed depth map.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// NewDepthMapFromData wraps data, which must hold exactly width*height samples.
func NewDepthMapFromData(width, height int, data []Depth) (*DepthMap, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("bad width or height for depth map %v %v", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf("depth map of %dx%d needs %d samples, got %d", width, height, width*height, len(data))
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

// Width returns the horizontal size of the map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical size of the map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the rectangle of the map starting at the origin.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// ColorModel is Gray16 so a DepthMap can be handed to any image consumer.
func (dm *DepthMap) ColorModel() color.Model {
	return color.Gray16Model
}

// At returns the depth at (x, y) as a color.Gray16.
func (dm *DepthMap) At(x, y int) color.Color {
	return color.Gray16{uint16(dm.GetDepth(x, y))}
}

// Contains reports whether (x, y) lies inside the map.
func (dm *DepthMap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

// GetDepth returns the depth at (x, y), or zero outside the map.
func (dm *DepthMap) GetDepth(x, y int) Depth {
	if !dm.Contains(x, y) {
		return 0
	}
	return dm.data[y*dm.width+x]
}

// Set sets the depth at (x, y).
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[y*dm.width+x] = val
}

// Data returns the backing samples in row-major order. Writes go straight to the map.
func (dm *DepthMap) Data() []Depth {
	return dm.data
}

// ReliableRange returns the min and max distances the sensor reported as trustworthy for
// this frame. Both are zero when the sensor did not report them.
func (dm *DepthMap) ReliableRange() (Depth, Depth) {
	return dm.minReliable, dm.maxReliable
}

// SetReliableRange records the sensor's reliable distance range.
func (dm *DepthMap) SetReliableRange(minReliable, maxReliable Depth) {
	dm.minReliable = minReliable
	dm.maxReliable = maxReliable
}

// Clone returns a deep copy.
func (dm *DepthMap) Clone() *DepthMap {
	out := &DepthMap{
		width:       dm.width,
		height:      dm.height,
		data:        make([]Depth, len(dm.data)),
		minReliable: dm.minReliable,
		maxReliable: dm.maxReliable,
	}
	copy(out.data, dm.data)
	return out
}

// MinMax returns the smallest and largest non-zero depth. Both are zero for an empty map.
func (dm *DepthMap) MinMax() (Depth, Depth) {
	var minDepth, maxDepth Depth
	for _, z := range dm.data {
		if z == 0 {
			continue
		}
		if minDepth == 0 || z < minDepth {
			minDepth = z
		}
		if z > maxDepth {
			maxDepth = z
		}
	}
	return minDepth, maxDepth
}

// ToGray16 copies the map into an *image.Gray16.
func (dm *DepthMap) ToGray16() *image.Gray16 {
	img := image.NewGray16(dm.Bounds())
	for i, z := range dm.data {
		img.Pix[2*i] = uint8(z >> 8)
		img.Pix[2*i+1] = uint8(z)
	}
	return img
}

// ConvertImageToDepthMap takes a Gray16 image (or a DepthMap) and returns a DepthMap.
func ConvertImageToDepthMap(img image.Image) (*DepthMap, error) {
	switch ii := img.(type) {
	case *DepthMap:
		return ii, nil
	case *image.Gray16:
		bounds := ii.Bounds()
		dm := NewEmptyDepthMap(bounds.Dx(), bounds.Dy())
		for y := 0; y < dm.height; y++ {
			for x := 0; x < dm.width; x++ {
				dm.data[y*dm.width+x] = Depth(ii.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return dm, nil
	default:
		return nil, errors.Errorf("don't know how to make DepthMap from %T", img)
	}
}
