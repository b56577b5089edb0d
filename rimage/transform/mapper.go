package transform

import "go.viam.com/rgbd/rimage"

// CoordinateMapper is the sensor's calibration capability. The frame functions return one
// entry per pixel of the grid named by their input, in raster order, and mark pixels with
// no correspondence with the negative infinity sentinel.
type CoordinateMapper interface {
	// MapDepthFrameToColorSpace returns, for every depth pixel, its color-grid coordinate.
	MapDepthFrameToColorSpace(depth *rimage.DepthMap) ([]ColorSpacePoint, error)
	// MapColorFrameToDepthSpace returns, for every color pixel, its depth-grid coordinate.
	MapColorFrameToDepthSpace(depth *rimage.DepthMap) ([]DepthSpacePoint, error)
	// MapDepthFrameToCameraSpace returns, for every depth pixel, its camera-space point.
	MapDepthFrameToCameraSpace(depth *rimage.DepthMap) ([]CameraSpacePoint, error)
	// MapCameraPointToDepthSpace projects a single camera-space point into the depth grid.
	MapCameraPointToDepthSpace(p CameraSpacePoint) (DepthSpacePoint, error)
}
