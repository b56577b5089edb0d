package inject

import (
	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
)

// Mapper is an injected coordinate mapper.
type Mapper struct {
	transform.CoordinateMapper
	MapDepthFrameToColorSpaceFunc  func(depth *rimage.DepthMap) ([]transform.ColorSpacePoint, error)
	MapColorFrameToDepthSpaceFunc  func(depth *rimage.DepthMap) ([]transform.DepthSpacePoint, error)
	MapDepthFrameToCameraSpaceFunc func(depth *rimage.DepthMap) ([]transform.CameraSpacePoint, error)
	MapCameraPointToDepthSpaceFunc func(p transform.CameraSpacePoint) (transform.DepthSpacePoint, error)
}

// MapDepthFrameToColorSpace calls the injected MapDepthFrameToColorSpace or the real version.
func (m *Mapper) MapDepthFrameToColorSpace(depth *rimage.DepthMap) ([]transform.ColorSpacePoint, error) {
	if m.MapDepthFrameToColorSpaceFunc == nil {
		return m.CoordinateMapper.MapDepthFrameToColorSpace(depth)
	}
	return m.MapDepthFrameToColorSpaceFunc(depth)
}

// MapColorFrameToDepthSpace calls the injected MapColorFrameToDepthSpace or the real version.
func (m *Mapper) MapColorFrameToDepthSpace(depth *rimage.DepthMap) ([]transform.DepthSpacePoint, error) {
	if m.MapColorFrameToDepthSpaceFunc == nil {
		return m.CoordinateMapper.MapColorFrameToDepthSpace(depth)
	}
	return m.MapColorFrameToDepthSpaceFunc(depth)
}

// MapDepthFrameToCameraSpace calls the injected MapDepthFrameToCameraSpace or the real version.
func (m *Mapper) MapDepthFrameToCameraSpace(depth *rimage.DepthMap) ([]transform.CameraSpacePoint, error) {
	if m.MapDepthFrameToCameraSpaceFunc == nil {
		return m.CoordinateMapper.MapDepthFrameToCameraSpace(depth)
	}
	return m.MapDepthFrameToCameraSpaceFunc(depth)
}

// MapCameraPointToDepthSpace calls the injected MapCameraPointToDepthSpace or the real version.
func (m *Mapper) MapCameraPointToDepthSpace(p transform.CameraSpacePoint) (transform.DepthSpacePoint, error) {
	if m.MapCameraPointToDepthSpaceFunc == nil {
		return m.CoordinateMapper.MapCameraPointToDepthSpace(p)
	}
	return m.MapCameraPointToDepthSpaceFunc(p)
}
