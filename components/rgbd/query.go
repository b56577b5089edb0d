package rgbd

import (
	"image"

	"go.viam.com/rgbd/rimage/transform"
)

// Pixel arguments and results of the queries below are in the configured resolutions.
// A false result means the pixel or point has no correspondence; the error is reserved for
// ErrMappingUnavailable.

// PixelToDepthPixel returns the depth pixel seen at a color pixel.
func (s *Session) PixelToDepthPixel(colorPixel image.Point) (image.Point, bool, error) {
	table, err := s.cache.ColorToDepth()
	if err != nil {
		return transform.InvalidPixel, false, err
	}
	if colorPixel.X < 0 || colorPixel.Y < 0 {
		return transform.InvalidPixel, false, nil
	}
	native := s.scale.ColorToNative(colorPixel)
	colorGrid := table.Grid()
	if !colorGrid.In(native) {
		return transform.InvalidPixel, false, nil
	}
	dp := table.At(colorGrid.Index(native.X, native.Y))
	if !dp.Valid() {
		return transform.InvalidPixel, false, nil
	}
	depthPixel := dp.Round()
	if !s.conf.DepthGrid.In(depthPixel) {
		return transform.InvalidPixel, false, nil
	}
	return s.scale.DepthFromNative(depthPixel), true, nil
}

// DepthPixelToRealPoint returns the camera space point, in meters, seen at a depth pixel.
// Invalid results are the zero point.
func (s *Session) DepthPixelToRealPoint(depthPixel image.Point) (transform.CameraSpacePoint, bool, error) {
	table, err := s.cache.DepthToCamera()
	if err != nil {
		return transform.CameraSpacePoint{}, false, err
	}
	if depthPixel.X < 0 || depthPixel.Y < 0 {
		return transform.CameraSpacePoint{}, false, nil
	}
	native := s.scale.DepthToNative(depthPixel)
	depthGrid := table.Grid()
	if !depthGrid.In(native) {
		return transform.CameraSpacePoint{}, false, nil
	}
	p := table.At(depthGrid.Index(native.X, native.Y))
	if !p.Valid() {
		return transform.CameraSpacePoint{}, false, nil
	}
	return p, true, nil
}

// RealPointToDepthPixel projects a camera space point into the depth image. It asks the
// mapper directly and so works before the first cycle.
func (s *Session) RealPointToDepthPixel(p transform.CameraSpacePoint) (image.Point, bool, error) {
	if !p.Valid() {
		return transform.InvalidPixel, false, nil
	}
	dp, err := s.cache.Mapper().MapCameraPointToDepthSpace(p)
	if err != nil {
		return transform.InvalidPixel, false, mappingError("MapCameraPointToDepthSpace", err)
	}
	if !dp.Valid() {
		return transform.InvalidPixel, false, nil
	}
	depthPixel := dp.Round()
	if !s.conf.DepthGrid.In(depthPixel) {
		return transform.InvalidPixel, false, nil
	}
	return s.scale.DepthFromNative(depthPixel), true, nil
}
