package rgbd_test

import (
	"context"
	"image"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/rgbd/components/rgbd"
	"go.viam.com/rgbd/components/rgbd/fake"
	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/testutils/inject"
)

func TestAcquireSynchronizedPair(t *testing.T) {
	ctx := context.Background()
	dev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	test.That(t, dev.Open(ctx), test.ShouldBeNil)

	pair, err := rgbd.AcquireSynchronizedPair(ctx, dev, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pair.Depth.Bounds(), test.ShouldResemble, image.Rect(0, 0, 4, 4))
	test.That(t, pair.Color.Bounds(), test.ShouldResemble, image.Rect(0, 0, 8, 8))
	test.That(t, pair.Depth.GetDepth(2, 3), test.ShouldEqual, fake.PlaneDepth(2, 3))
	test.That(t, pair.Depth.GetDepth(0, 3), test.ShouldEqual, rimage.Depth(0))
	test.That(t, pair.Color.RGBAAt(7, 7), test.ShouldResemble, fake.GradientColor(smallColorGrid, 7, 7, 2))
	minR, maxR := pair.Depth.ReliableRange()
	test.That(t, minR, test.ShouldEqual, rimage.DefaultMinReliable)
	test.That(t, maxR, test.ShouldEqual, rimage.DefaultMaxReliable)

	test.That(t, dev.Acquired(), test.ShouldEqual, int64(2))
	test.That(t, dev.Outstanding(), test.ShouldEqual, int64(0))
}

func TestAcquireReleasesDepthWhenColorFails(t *testing.T) {
	ctx := context.Background()
	dev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	test.That(t, dev.Open(ctx), test.ShouldBeNil)
	dev.FailColor = errors.New("usb reset")

	pair, err := rgbd.AcquireSynchronizedPair(ctx, dev, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "usb reset")
	test.That(t, pair, test.ShouldBeNil)
	test.That(t, dev.Acquired(), test.ShouldEqual, int64(1))
	test.That(t, dev.Released(), test.ShouldEqual, int64(1))
	test.That(t, dev.Outstanding(), test.ShouldEqual, int64(0))
}

func TestAcquireNoFrameAvailable(t *testing.T) {
	ctx := context.Background()
	fakeDev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	test.That(t, fakeDev.Open(ctx), test.ShouldBeNil)
	dev := &inject.Device{Device: fakeDev}
	dev.AcquireLatestFrameFunc = func(ctx context.Context, s rgbd.Stream) (rgbd.FrameHandle, error) {
		if s.Kind == rgbd.ColorFrame {
			return nil, rgbd.ErrNoFrameAvailable
		}
		return fakeDev.AcquireLatestFrame(ctx, s)
	}

	pair, err := rgbd.AcquireSynchronizedPair(ctx, dev, nil)
	test.That(t, errors.Is(err, rgbd.ErrNoFrameAvailable), test.ShouldBeTrue)
	test.That(t, pair, test.ShouldBeNil)
	test.That(t, fakeDev.Outstanding(), test.ShouldEqual, int64(0))
}

func TestAcquireCombinesReleaseErrors(t *testing.T) {
	ctx := context.Background()
	fakeDev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	test.That(t, fakeDev.Open(ctx), test.ShouldBeNil)
	dev := &inject.Device{Device: fakeDev}
	dev.AcquireLatestFrameFunc = func(ctx context.Context, s rgbd.Stream) (rgbd.FrameHandle, error) {
		h, err := fakeDev.AcquireLatestFrame(ctx, s)
		if err != nil {
			return nil, err
		}
		injected := &inject.FrameHandle{FrameHandle: h}
		injected.ReleaseFunc = func() error {
			test.That(t, h.Release(), test.ShouldBeNil)
			return errors.Errorf("%s release failed", s.Kind)
		}
		return injected, nil
	}

	pair, err := rgbd.AcquireSynchronizedPair(ctx, dev, nil)
	test.That(t, pair, test.ShouldBeNil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "depth release failed")
	test.That(t, err.Error(), test.ShouldContainSubstring, "color release failed")
	test.That(t, fakeDev.Outstanding(), test.ShouldEqual, int64(0))
}

func TestAcquireCopyFailureReleasesBoth(t *testing.T) {
	ctx := context.Background()
	fakeDev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	test.That(t, fakeDev.Open(ctx), test.ShouldBeNil)
	dev := &inject.Device{Device: fakeDev}
	dev.AcquireLatestFrameFunc = func(ctx context.Context, s rgbd.Stream) (rgbd.FrameHandle, error) {
		h, err := fakeDev.AcquireLatestFrame(ctx, s)
		if err != nil {
			return nil, err
		}
		return &inject.FrameHandle{
			FrameHandle: h,
			CopyColorToFunc: func(dst *image.RGBA) error {
				return errors.New("dma error")
			},
		}, nil
	}

	pair, err := rgbd.AcquireSynchronizedPair(ctx, dev, nil)
	test.That(t, pair, test.ShouldBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "dma error")
	test.That(t, fakeDev.Acquired(), test.ShouldEqual, int64(2))
	test.That(t, fakeDev.Outstanding(), test.ShouldEqual, int64(0))
}

func TestAcquireWrongKind(t *testing.T) {
	ctx := context.Background()
	fakeDev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	test.That(t, fakeDev.Open(ctx), test.ShouldBeNil)
	dev := &inject.Device{Device: fakeDev}
	dev.AcquireLatestFrameFunc = func(ctx context.Context, s rgbd.Stream) (rgbd.FrameHandle, error) {
		return fakeDev.AcquireLatestFrame(ctx, fakeDev.DepthStream())
	}

	_, err := rgbd.AcquireSynchronizedPair(ctx, dev, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "color stream returned a depth frame")
	test.That(t, fakeDev.Outstanding(), test.ShouldEqual, int64(0))
}

func TestAcquireUnavailable(t *testing.T) {
	dev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	_, err := rgbd.AcquireSynchronizedPair(context.Background(), dev, nil)
	test.That(t, errors.Is(err, rgbd.ErrDeviceUnavailable), test.ShouldBeTrue)

	_, err = rgbd.AcquireSynchronizedPair(context.Background(), nil, nil)
	test.That(t, errors.Is(err, rgbd.ErrDeviceUnavailable), test.ShouldBeTrue)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	test.That(t, dev.Open(context.Background()), test.ShouldBeNil)
	_, err = rgbd.AcquireSynchronizedPair(ctx, dev, nil)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, dev.Acquired(), test.ShouldEqual, int64(0))
}

func TestFrameArenaAlternates(t *testing.T) {
	ctx := context.Background()
	dev := newFakeDevice(t, smallDepthGrid, smallColorGrid, nil)
	test.That(t, dev.Open(ctx), test.ShouldBeNil)
	arena := rgbd.NewFrameArena()

	first, err := rgbd.AcquireSynchronizedPair(ctx, dev, arena)
	test.That(t, err, test.ShouldBeNil)
	second, err := rgbd.AcquireSynchronizedPair(ctx, dev, arena)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second.Depth, test.ShouldNotEqual, first.Depth)
	test.That(t, second.Color, test.ShouldNotEqual, first.Color)

	// a failed acquisition leaves the served pair alone
	dev.FailColor = errors.New("usb reset")
	_, err = rgbd.AcquireSynchronizedPair(ctx, dev, arena)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, second.Color.RGBAAt(0, 0), test.ShouldResemble, fake.GradientColor(smallColorGrid, 0, 0, 4))

	dev.FailColor = nil
	third, err := rgbd.AcquireSynchronizedPair(ctx, dev, arena)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, third.Depth, test.ShouldEqual, first.Depth)
	test.That(t, third.Color, test.ShouldEqual, first.Color)
}
