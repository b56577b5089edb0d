// Package transform maps pixels between the depth, color and camera spaces of an RGB-D
// sensor and resamples rasters from one grid into another.
package transform

import (
	"image"
	"math"

	"github.com/golang/geo/r3"
)

// Grid is the native raster size of a sensor.
type Grid struct {
	Width  int `json:"width_px"`
	Height int `json:"height_px"`
}

// NewGrid returns a Grid of the given size.
func NewGrid(width, height int) Grid {
	return Grid{Width: width, Height: height}
}

// GridOf returns the grid covering r.
func GridOf(r image.Rectangle) Grid {
	return Grid{Width: r.Dx(), Height: r.Dy()}
}

// Area is the number of pixels in the grid.
func (g Grid) Area() int {
	return g.Width * g.Height
}

// In reports whether p lies inside the grid.
func (g Grid) In(p image.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.Width && p.Y < g.Height
}

// Index returns the raster-order index of (x, y).
func (g Grid) Index(x, y int) int {
	return y*g.Width + x
}

// Point is the inverse of Index.
func (g Grid) Point(i int) image.Point {
	return image.Point{i % g.Width, i / g.Width}
}

// Bounds returns the grid as a rectangle at the origin.
func (g Grid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Empty reports whether the grid has no pixels.
func (g Grid) Empty() bool {
	return g.Width <= 0 || g.Height <= 0
}

// invalidCoord marks a coordinate with no correspondence.
var invalidCoord = float32(math.Inf(-1))

// InvalidPixel is returned by queries whose answer is not a pixel.
var InvalidPixel = image.Point{-1, -1}

// SpacePoint is a sub-pixel coordinate in a 2-D sensor space.
type SpacePoint struct {
	X, Y float32
}

// ColorSpacePoint is a coordinate in the color grid.
type ColorSpacePoint = SpacePoint

// DepthSpacePoint is a coordinate in the depth grid.
type DepthSpacePoint = SpacePoint

// InvalidSpacePoint returns the "no correspondence" sentinel.
func InvalidSpacePoint() SpacePoint {
	return SpacePoint{invalidCoord, invalidCoord}
}

// Valid is false when either axis holds the sentinel (or is NaN).
func (p SpacePoint) Valid() bool {
	return validCoord(p.X) && validCoord(p.Y)
}

// Round returns the nearest pixel using floor(v + 0.5) on each axis. Only meaningful when
// Valid is true.
func (p SpacePoint) Round() image.Point {
	return image.Point{RoundHalfUp(p.X), RoundHalfUp(p.Y)}
}

// CameraSpacePoint is a 3-D point in meters relative to the sensor.
type CameraSpacePoint struct {
	X, Y, Z float32
}

// InvalidCameraSpacePoint returns the "no correspondence" sentinel.
func InvalidCameraSpacePoint() CameraSpacePoint {
	return CameraSpacePoint{invalidCoord, invalidCoord, invalidCoord}
}

// NewCameraSpacePoint converts a vector in meters.
func NewCameraSpacePoint(v r3.Vector) CameraSpacePoint {
	return CameraSpacePoint{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Valid is false when any axis holds the sentinel (or is NaN).
func (p CameraSpacePoint) Valid() bool {
	return validCoord(p.X) && validCoord(p.Y) && validCoord(p.Z)
}

// Vector returns the point as an r3.Vector.
func (p CameraSpacePoint) Vector() r3.Vector {
	return r3.Vector{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

func validCoord(v float32) bool {
	f := float64(v)
	return !math.IsInf(f, -1) && !math.IsNaN(f)
}

// RoundHalfUp rounds v to floor(v + 0.5): 2.49 -> 2, 2.5 -> 3, -0.5 -> 0.
func RoundHalfUp(v float32) int {
	return int(math.Floor(float64(v) + 0.5))
}
