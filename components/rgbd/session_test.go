package rgbd_test

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"go.viam.com/rgbd/components/rgbd"
	"go.viam.com/rgbd/components/rgbd/fake"
	"go.viam.com/rgbd/logging"
	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
	"go.viam.com/rgbd/testutils/inject"
)

func newSmallSession(t *testing.T) (*rgbd.Session, *fake.Device, *inject.Mapper) {
	t.Helper()
	dev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	mapper := identityMapper(smallDepthGrid, smallColorGrid)
	s, err := rgbd.NewSession(context.Background(), dev, mapper, smallConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return s, dev, mapper
}

func TestNewSession(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	mapper := identityMapper(smallDepthGrid, smallColorGrid)

	_, err := rgbd.NewSession(ctx, nil, mapper, smallConfig(), logger)
	test.That(t, errors.Is(err, rgbd.ErrDeviceUnavailable), test.ShouldBeTrue)

	_, err = rgbd.NewSession(ctx, newFakeDevice(t, smallDepthGrid, smallColorGrid, nil), nil, smallConfig(), logger)
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)

	_, err = rgbd.NewSession(ctx, newFakeDevice(t, smallDepthGrid, smallColorGrid, nil), mapper, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = rgbd.NewSession(ctx, newFakeDevice(t, smallDepthGrid, smallColorGrid, nil), mapper, &rgbd.Config{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "depth_grid")

	mismatched := newFakeDevice(t, transform.NewGrid(6, 4), smallColorGrid, nil)
	_, err = rgbd.NewSession(ctx, mismatched, mapper, smallConfig(), logger)
	test.That(t, errors.Is(err, rgbd.ErrDeviceUnavailable), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "depth stream is 6x4 but 4x4 is configured")

	broken := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	broken.FailOpen = errors.New("no usb3 controller")
	_, err = rgbd.NewSession(ctx, broken, mapper, smallConfig(), logger)
	test.That(t, errors.Is(err, rgbd.ErrDeviceUnavailable), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no usb3 controller")

	dev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	s, err := rgbd.NewSession(ctx, dev, mapper, smallConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dev.IsOpen(), test.ShouldBeTrue)
	test.That(t, s.IsAvailable(), test.ShouldBeTrue)
	test.That(t, s.CurrentPair(), test.ShouldBeNil)
	test.That(t, s.ScaleFactors(), test.ShouldResemble, rgbd.ScaleFactors{ColorX: 1, ColorY: 1, DepthX: 1, DepthY: 1})
}

func TestSessionBeforeFirstCycle(t *testing.T) {
	s, _, _ := newSmallSession(t)
	other, _, _ := newSmallSession(t)
	_, err := uuid.Parse(s.ID())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.ID(), test.ShouldNotEqual, other.ID())

	_, ok, err := s.PixelToDepthPixel(image.Point{1, 1})
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)
	test.That(t, ok, test.ShouldBeFalse)
	_, _, err = s.DepthPixelToRealPoint(image.Point{1, 1})
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)
	_, err = s.AlignedColor()
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)
	_, err = s.AlignedDepth()
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)
	_, err = s.AlignedIntensity()
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)
	_, err = s.VisualizeDepth()
	test.That(t, errors.Is(err, rgbd.ErrNoFrameAvailable), test.ShouldBeTrue)

	// projecting a camera point needs no frame
	px, ok, err := s.RealPointToDepthPixel(transform.CameraSpacePoint{X: 0.2, Y: 0.3, Z: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, px, test.ShouldResemble, image.Point{2, 3})
}

func TestSessionAlignment(t *testing.T) {
	s, dev, _ := newSmallSession(t)
	ok, err := s.Cycle(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, dev.Outstanding(), test.ShouldEqual, int64(0))
	pair := s.CurrentPair()
	test.That(t, pair, test.ShouldNotBeNil)

	alignedColor, err := s.AlignedColor()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, alignedColor.Bounds(), test.ShouldResemble, image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if y == 0 {
				test.That(t, alignedColor.RGBAAt(x, y), test.ShouldResemble, color.RGBA{})
				continue
			}
			test.That(t, alignedColor.RGBAAt(x, y), test.ShouldResemble, pair.Color.RGBAAt(x, y))
		}
	}

	alignedIntensity, err := s.AlignedIntensity()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, alignedIntensity.Bounds(), test.ShouldResemble, image.Rect(0, 0, 4, 4))
	test.That(t, alignedIntensity.GrayAt(2, 0).Y, test.ShouldEqual, uint8(0))
	test.That(t, alignedIntensity.GrayAt(3, 3), test.ShouldResemble, color.GrayModel.Convert(pair.Color.RGBAAt(3, 3)))

	alignedDepth, err := s.AlignedDepth()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, alignedDepth.Bounds(), test.ShouldResemble, image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			switch {
			case y == 0, x >= 4, y >= 4:
				test.That(t, alignedDepth.GetDepth(x, y), test.ShouldEqual, rimage.MaxDepth)
			default:
				test.That(t, alignedDepth.GetDepth(x, y), test.ShouldEqual, fake.PlaneDepth(x, y))
			}
		}
	}
}

func TestSessionAlignedOutputResize(t *testing.T) {
	dev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	conf := smallConfig()
	conf.AlignedOutput = &transform.Grid{Width: 8, Height: 8}
	conf.ResizeInterpolation = transform.NearestNeighbor
	s, err := rgbd.NewSession(context.Background(), dev, identityMapper(smallDepthGrid, smallColorGrid), conf, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	ok, err := s.Cycle(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)

	alignedColor, err := s.AlignedColor()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, alignedColor.Bounds(), test.ShouldResemble, image.Rect(0, 0, 8, 8))
	test.That(t, alignedColor.RGBAAt(7, 7), test.ShouldResemble, s.CurrentPair().Color.RGBAAt(3, 3))

	alignedIntensity, err := s.AlignedIntensity()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, alignedIntensity.Bounds(), test.ShouldResemble, image.Rect(0, 0, 8, 8))

	alignedDepth, err := s.AlignedDepth()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, alignedDepth.Width(), test.ShouldEqual, 8)
}

func TestSessionQueries(t *testing.T) {
	s, _, _ := newSmallSession(t)
	ok, err := s.Cycle(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)

	px, ok, err := s.PixelToDepthPixel(image.Point{2, 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, px, test.ShouldResemble, image.Point{2, 3})

	for _, colorPixel := range []image.Point{{1, 0}, {5, 5}, {-1, 2}, {8, 1}, {2, 8}} {
		px, ok, err = s.PixelToDepthPixel(colorPixel)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeFalse)
		test.That(t, px, test.ShouldResemble, transform.InvalidPixel)
	}

	pt, ok, err := s.DepthPixelToRealPoint(image.Point{2, 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pt, test.ShouldResemble, transform.CameraSpacePoint{X: 0.2, Y: 0.3, Z: 1})

	// either axis out of range is rejected
	for _, depthPixel := range []image.Point{{1, 0}, {4, 1}, {1, 4}, {-1, 2}, {2, -1}} {
		pt, ok, err = s.DepthPixelToRealPoint(depthPixel)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeFalse)
		test.That(t, pt, test.ShouldResemble, transform.CameraSpacePoint{})
	}

	px, ok, err = s.RealPointToDepthPixel(transform.CameraSpacePoint{X: 0.2, Y: 0.3, Z: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, px, test.ShouldResemble, image.Point{2, 3})

	for _, bad := range []transform.CameraSpacePoint{
		transform.InvalidCameraSpacePoint(),
		{X: 0.9, Y: 0.1, Z: 1},
		{X: -0.2, Y: 0.1, Z: 1},
	} {
		px, ok, err = s.RealPointToDepthPixel(bad)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeFalse)
		test.That(t, px, test.ShouldResemble, transform.InvalidPixel)
	}
}

func TestSessionQueriesAtConfiguredResolution(t *testing.T) {
	dev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	conf := smallConfig()
	conf.DepthResolution = &transform.Grid{Width: 2, Height: 2}
	conf.ColorResolution = &transform.Grid{Width: 4, Height: 4}
	s, err := rgbd.NewSession(context.Background(), dev, identityMapper(smallDepthGrid, smallColorGrid), conf, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.ScaleFactors(), test.ShouldResemble, rgbd.ScaleFactors{ColorX: 2, ColorY: 2, DepthX: 2, DepthY: 2})
	ok, err := s.Cycle(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)

	// color (1,1) is native (2,2), which sees depth (2,2), which is (1,1) at 2x2
	px, ok, err := s.PixelToDepthPixel(image.Point{1, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, px, test.ShouldResemble, image.Point{1, 1})

	pt, ok, err := s.DepthPixelToRealPoint(image.Point{1, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pt, test.ShouldResemble, transform.CameraSpacePoint{X: 0.2, Y: 0.2, Z: 1})

	px, ok, err = s.RealPointToDepthPixel(transform.CameraSpacePoint{X: 0.3, Y: 0.3, Z: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, px, test.ShouldResemble, image.Point{1, 1})
}

func TestSessionNoFrameAvailable(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	dev, err := fake.NewDevice(fake.Config{
		DepthGrid:   smallDepthGrid,
		ColorGrid:   smallColorGrid,
		FramePeriod: 33 * time.Millisecond,
	}, clk, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	logger, logs := logging.NewObservedTestLogger(t)
	s, err := rgbd.NewSession(ctx, dev, identityMapper(smallDepthGrid, smallColorGrid), smallConfig(), logger)
	test.That(t, err, test.ShouldBeNil)

	ok, err := s.Cycle(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	first := s.CurrentPair()

	clk.Add(10 * time.Millisecond)
	ok, err = s.Cycle(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, s.CurrentPair(), test.ShouldEqual, first)
	_, err = s.AlignedColor()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("no frame available").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterLevelExact(zapcore.WarnLevel).Len(), test.ShouldEqual, 0)

	clk.Add(30 * time.Millisecond)
	ok, err = s.Cycle(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, s.CurrentPair(), test.ShouldNotEqual, first)

	test.That(t, s.Stats(), test.ShouldResemble, rgbd.SessionStats{Cycles: 3, EmptyPolls: 1, TablesCurrent: true})
	test.That(t, dev.Outstanding(), test.ShouldEqual, int64(0))
}

func TestSessionDeviceFault(t *testing.T) {
	ctx := context.Background()
	s, dev, _ := newSmallSession(t)
	ok, err := s.Cycle(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)

	dev.FailColor = errors.New("usb reset")
	ok, err = s.Cycle(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, s.CurrentPair(), test.ShouldBeNil)
	test.That(t, dev.Outstanding(), test.ShouldEqual, int64(0))
	_, _, err = s.PixelToDepthPixel(image.Point{2, 3})
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)

	dev.FailColor = nil
	ok, err = s.Cycle(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	stats := s.Stats()
	test.That(t, stats.DeviceFaults, test.ShouldEqual, uint64(1))
	test.That(t, stats.Cycles, test.ShouldEqual, uint64(3))
}

func TestSessionMappingFailure(t *testing.T) {
	ctx := context.Background()
	s, _, mapper := newSmallSession(t)
	ok, err := s.Cycle(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)

	good := mapper.MapDepthFrameToColorSpaceFunc
	mapper.MapDepthFrameToColorSpaceFunc = func(depth *rimage.DepthMap) ([]transform.ColorSpacePoint, error) {
		return nil, errors.New("calibration lost")
	}
	ok, err = s.Cycle(ctx)
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)
	test.That(t, ok, test.ShouldBeFalse)

	// the frames are new but the tables are not, so nothing may be answered from them
	test.That(t, s.CurrentPair(), test.ShouldNotBeNil)
	_, _, err = s.PixelToDepthPixel(image.Point{2, 3})
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)
	_, _, err = s.DepthPixelToRealPoint(image.Point{2, 3})
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)
	_, err = s.AlignedDepth()
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)
	_, err = s.VisualizeDepth()
	test.That(t, err, test.ShouldBeNil)

	mapper.MapDepthFrameToColorSpaceFunc = good
	ok, err = s.Cycle(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	_, ok, err = s.PixelToDepthPixel(image.Point{2, 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, s.Stats().MappingFailures, test.ShouldEqual, uint64(1))
}

func TestSessionCameraPointError(t *testing.T) {
	s, _, mapper := newSmallSession(t)
	mapper.MapCameraPointToDepthSpaceFunc = func(p transform.CameraSpacePoint) (transform.DepthSpacePoint, error) {
		return transform.DepthSpacePoint{}, errors.New("not calibrated")
	}
	px, ok, err := s.RealPointToDepthPixel(transform.CameraSpacePoint{X: 0.1, Y: 0.1, Z: 1})
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, px, test.ShouldResemble, transform.InvalidPixel)
}

func TestSessionVisualizeDepth(t *testing.T) {
	s, _, _ := newSmallSession(t)
	ok, err := s.Cycle(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)

	img, err := s.VisualizeDepth()
	test.That(t, err, test.ShouldBeNil)
	jet := rimage.JetPalette()
	test.That(t, img.RGBAAt(0, 2), test.ShouldResemble, jet[0])
	want := jet[rimage.Intensity(fake.PlaneDepth(2, 3), rimage.DefaultMinReliable, rimage.DefaultMaxReliable)]
	test.That(t, img.RGBAAt(2, 3), test.ShouldResemble, want)

	dev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	conf := smallConfig()
	conf.Visualizer = rgbd.VisualizerConfig{MinReliableMM: 1000, MaxReliableMM: 1100, Palette: "hue"}
	s, err = rgbd.NewSession(context.Background(), dev, identityMapper(smallDepthGrid, smallColorGrid), conf, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	_, err = s.Cycle(context.Background())
	test.That(t, err, test.ShouldBeNil)
	img, err = s.VisualizeDepth()
	test.That(t, err, test.ShouldBeNil)
	hue := rimage.HuePalette()
	test.That(t, img.RGBAAt(1, 3), test.ShouldResemble, hue[rimage.Intensity(fake.PlaneDepth(1, 3), 1000, 1100)])
}

func TestSessionWithCalibration(t *testing.T) {
	ctx := context.Background()
	depthGrid, colorGrid := transform.NewGrid(32, 24), transform.NewGrid(64, 36)
	dev := newFakeDevice(t, depthGrid, colorGrid, nil)
	conf := &rgbd.Config{
		DepthGrid:   depthGrid,
		ColorGrid:   colorGrid,
		Calibration: fake.DefaultCalibration(depthGrid, colorGrid),
	}
	s, err := rgbd.NewSession(ctx, dev, nil, conf, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	ok, err := s.Cycle(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)

	// column 0 has no depth
	_, ok, err = s.DepthPixelToRealPoint(image.Point{0, 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)

	for _, p := range []image.Point{{1, 1}, {16, 12}, {31, 23}, {5, 20}} {
		pt, ok, err := s.DepthPixelToRealPoint(p)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, float64(pt.Z), test.ShouldAlmostEqual, float64(fake.PlaneDepth(p.X, p.Y))/1000, 1e-6)

		back, ok, err := s.RealPointToDepthPixel(pt)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, back.X, test.ShouldAlmostEqual, p.X, 1)
		test.That(t, back.Y, test.ShouldAlmostEqual, p.Y, 1)
	}

	aligned, err := s.AlignedColor()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, aligned.Bounds(), test.ShouldResemble, depthGrid.Bounds())
	test.That(t, aligned.RGBAAt(0, 5).A, test.ShouldEqual, uint8(0))
	test.That(t, aligned.RGBAAt(16, 12).A, test.ShouldEqual, uint8(255))
}

func TestSessionWithHomography(t *testing.T) {
	ctx := context.Background()
	conf := smallConfig()
	conf.Homography = &transform.HomographyMapper{
		Depth:        &transform.PinholeCameraIntrinsics{Width: 4, Height: 4, Fx: 2, Fy: 2, Ppx: 2, Ppy: 2},
		ColorGrid:    smallColorGrid,
		DepthToColor: []float64{2, 0, 0, 0, 2, 0, 0, 0, 1},
	}
	dev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	s, err := rgbd.NewSession(ctx, dev, nil, conf, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	ok, err := s.Cycle(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)

	aligned, err := s.AlignedColor()
	test.That(t, err, test.ShouldBeNil)
	pair := s.CurrentPair()
	test.That(t, aligned.RGBAAt(1, 3), test.ShouldResemble, pair.Color.RGBAAt(2, 6))
	test.That(t, aligned.RGBAAt(0, 3).A, test.ShouldEqual, uint8(0))

	p, ok, err := s.PixelToDepthPixel(image.Point{6, 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p, test.ShouldResemble, image.Point{3, 1})
}

func TestSessionClose(t *testing.T) {
	ctx := context.Background()
	s, dev, _ := newSmallSession(t)
	_, err := s.Cycle(ctx)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, s.Close(ctx), test.ShouldBeNil)
	test.That(t, s.IsAvailable(), test.ShouldBeFalse)
	test.That(t, dev.Outstanding(), test.ShouldEqual, int64(0))
	_, err = s.AlignedColor()
	test.That(t, errors.Is(err, rgbd.ErrMappingUnavailable), test.ShouldBeTrue)
	test.That(t, s.Close(ctx), test.ShouldBeNil)

	ok, err := s.Cycle(ctx)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, errors.Is(err, rgbd.ErrDeviceUnavailable), test.ShouldBeTrue)
}

func TestSessionStatsString(t *testing.T) {
	out := rgbd.SessionStats{Cycles: 12, EmptyPolls: 3, DeviceFaults: 1, TablesCurrent: true}.String()
	lines := strings.Split(out, "\n")
	test.That(t, len(lines), test.ShouldEqual, 5)
	test.That(t, lines[1], test.ShouldContainSubstring, "EMPTY POLLS")
	test.That(t, lines[3], test.ShouldContainSubstring, "12")
	test.That(t, lines[3], test.ShouldContainSubstring, "true")
}
