package fake

import "go.viam.com/rgbd/rimage/transform"

var (
	referenceDepth = &transform.PinholeCameraIntrinsics{
		Width:  512,
		Height: 424,
		Fx:     365.456,
		Fy:     365.456,
		Ppx:    254.878,
		Ppy:    205.395,
	}
	referenceColor = &transform.PinholeCameraIntrinsics{
		Width:  1920,
		Height: 1080,
		Fx:     1081.372,
		Fy:     1081.372,
		Ppx:    959.5,
		Ppy:    539.5,
	}
)

// DefaultCalibration returns pinhole calibration for the fake device, scaled to its grids.
// The color camera sits 52mm along +x from the depth camera.
func DefaultCalibration(depthGrid, colorGrid transform.Grid) *transform.PinholeMapper {
	return &transform.PinholeMapper{
		Depth: referenceDepth.Scaled(depthGrid),
		Color: referenceColor.Scaled(colorGrid),
		DepthToColor: &transform.Extrinsics{
			RotationMatrix:    []float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
			TranslationVector: []float64{-0.052, 0, 0},
		},
	}
}
