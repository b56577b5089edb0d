package rgbd_test

import (
	"testing"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"go.viam.com/rgbd/components/rgbd"
	"go.viam.com/rgbd/components/rgbd/fake"
	"go.viam.com/rgbd/logging"
	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
	"go.viam.com/rgbd/testutils/inject"
)

var (
	smallDepthGrid = transform.NewGrid(4, 4)
	smallColorGrid = transform.NewGrid(8, 8)
)

func newFakeDevice(t *testing.T, depthGrid, colorGrid transform.Grid, clk clock.Clock) *fake.Device {
	t.Helper()
	dev, err := fake.NewDevice(fake.Config{DepthGrid: depthGrid, ColorGrid: colorGrid}, clk, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return dev
}

// identityMapper maps pixel (x, y) of each grid to (x, y) of the other, with row 0 having no
// correspondence. Depth pixel (x, y) is at (0.1x, 0.1y, 1) meters.
func identityMapper(depthGrid, colorGrid transform.Grid) *inject.Mapper {
	identity := func(grid transform.Grid) []transform.SpacePoint {
		pts := make([]transform.SpacePoint, grid.Area())
		for i := range pts {
			p := grid.Point(i)
			if p.Y == 0 {
				pts[i] = transform.InvalidSpacePoint()
				continue
			}
			pts[i] = transform.SpacePoint{X: float32(p.X), Y: float32(p.Y)}
		}
		return pts
	}
	return &inject.Mapper{
		MapDepthFrameToColorSpaceFunc: func(depth *rimage.DepthMap) ([]transform.ColorSpacePoint, error) {
			return identity(transform.GridOf(depth.Bounds())), nil
		},
		MapColorFrameToDepthSpaceFunc: func(depth *rimage.DepthMap) ([]transform.DepthSpacePoint, error) {
			return identity(colorGrid), nil
		},
		MapDepthFrameToCameraSpaceFunc: func(depth *rimage.DepthMap) ([]transform.CameraSpacePoint, error) {
			pts := make([]transform.CameraSpacePoint, depthGrid.Area())
			for i := range pts {
				p := depthGrid.Point(i)
				if p.Y == 0 {
					pts[i] = transform.InvalidCameraSpacePoint()
					continue
				}
				pts[i] = transform.CameraSpacePoint{X: 0.1 * float32(p.X), Y: 0.1 * float32(p.Y), Z: 1}
			}
			return pts, nil
		},
		MapCameraPointToDepthSpaceFunc: func(p transform.CameraSpacePoint) (transform.DepthSpacePoint, error) {
			return transform.DepthSpacePoint{X: p.X / 0.1, Y: p.Y / 0.1}, nil
		},
	}
}

func smallConfig() *rgbd.Config {
	return &rgbd.Config{DepthGrid: smallDepthGrid, ColorGrid: smallColorGrid}
}
