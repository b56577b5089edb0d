package rgbd

import (
	"image"

	"go.viam.com/rgbd/rimage/transform"
)

// ScaleFactors convert pixels between the resolution a caller works in and the native sensor
// grids. Each factor is native size over configured size.
type ScaleFactors struct {
	ColorX, ColorY float64
	DepthX, DepthY float64
}

// NewScaleFactors computes the factors for the given native grids and configured resolutions.
func NewScaleFactors(depthGrid, colorGrid, depthRes, colorRes transform.Grid) ScaleFactors {
	return ScaleFactors{
		ColorX: float64(colorGrid.Width) / float64(colorRes.Width),
		ColorY: float64(colorGrid.Height) / float64(colorRes.Height),
		DepthX: float64(depthGrid.Width) / float64(depthRes.Width),
		DepthY: float64(depthGrid.Height) / float64(depthRes.Height),
	}
}

// ColorToNative scales a configured-resolution color pixel to the native color grid.
func (s ScaleFactors) ColorToNative(p image.Point) image.Point {
	return toNative(p, s.ColorX, s.ColorY)
}

// DepthToNative scales a configured-resolution depth pixel to the native depth grid.
func (s ScaleFactors) DepthToNative(p image.Point) image.Point {
	return toNative(p, s.DepthX, s.DepthY)
}

// DepthFromNative scales a native depth pixel to the configured depth resolution.
func (s ScaleFactors) DepthFromNative(p image.Point) image.Point {
	return image.Point{int(float64(p.X) / s.DepthX), int(float64(p.Y) / s.DepthY)}
}

func toNative(p image.Point, sx, sy float64) image.Point {
	return image.Point{int(float64(p.X) * sx), int(float64(p.Y) * sy)}
}
