package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"go.viam.com/rgbd/components/rgbd"
	"go.viam.com/rgbd/components/rgbd/fake"
	"go.viam.com/rgbd/logging"
	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
)

const (
	formatPNG = "png"
	formatPPM = "ppm"
	formatQOI = "qoi"
)

type encodeFunc func(io.Writer, image.Image) error

func encoderFor(format string) (encodeFunc, error) {
	switch format {
	case formatPNG:
		return png.Encode, nil
	case formatPPM:
		return encodePPM, nil
	case formatQOI:
		return qoi.Encode, nil
	default:
		return nil, errors.Errorf("unknown image format %q", format)
	}
}

// encodePPM writes img as a color PPM; ppm has no gray mode, so other images are converted.
func encodePPM(w io.Writer, img image.Image) error {
	if _, ok := img.(*image.RGBA); !ok {
		rgba := image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
		img = rgba
	}
	return ppm.Encode(w, img)
}

type captureArgs struct {
	ConfigPath string
	OutDir     string
	Format     string
	Frames     int
	Period     time.Duration
}

// runCapture cycles a session on the synthetic device until args.Frames pairs have been
// aligned and written to args.OutDir. Without a calibration in the config the device's
// reference calibration is used.
func runCapture(ctx context.Context, args captureArgs, logger logging.Logger) (stats rgbd.SessionStats, err error) {
	encode, err := encoderFor(args.Format)
	if err != nil {
		return stats, err
	}
	if args.Frames <= 0 {
		return stats, errors.Errorf("frames must be positive, got %d", args.Frames)
	}
	conf, err := rgbd.ReadConfig(args.ConfigPath, logger)
	if err != nil {
		return stats, err
	}
	dev, err := fake.NewDevice(fake.Config{
		DepthGrid:   conf.DepthGrid,
		ColorGrid:   conf.ColorGrid,
		FramePeriod: args.Period,
	}, nil, logger.Sublogger("fake"))
	if err != nil {
		return stats, err
	}
	var mapper transform.CoordinateMapper
	if conf.Calibration == nil && conf.Homography == nil {
		mapper = fake.DefaultCalibration(conf.DepthGrid, conf.ColorGrid)
	}
	if err := os.MkdirAll(args.OutDir, 0o750); err != nil {
		return stats, err
	}

	s, err := rgbd.NewSession(ctx, dev, mapper, conf, logger)
	if err != nil {
		return stats, err
	}
	defer func() {
		stats = s.Stats()
		err = multierr.Combine(err, s.Close(ctx))
	}()

	poll := args.Period / 4
	if poll <= 0 {
		poll = time.Millisecond
	}
	for written := 0; written < args.Frames; {
		ok, err := s.Cycle(ctx)
		if err != nil {
			return stats, err
		}
		if !ok {
			if !goutils.SelectContextOrWait(ctx, poll) {
				return stats, ctx.Err()
			}
			continue
		}
		if err := writeFrames(ctx, s, args.OutDir, written, args.Format, encode); err != nil {
			return stats, err
		}
		written++
	}
	logger.Infow("capture done", "session", s.ID(), "frames", args.Frames, "out", args.OutDir)
	return stats, nil
}

// writeFrames writes the aligned outputs of the current cycle, one file each.
func writeFrames(ctx context.Context, s *rgbd.Session, dir string, index int, ext string, encode encodeFunc) error {
	color, err := s.AlignedColor()
	if err != nil {
		return err
	}
	intensity, err := s.AlignedIntensity()
	if err != nil {
		return err
	}
	depth, err := s.AlignedDepth()
	if err != nil {
		return err
	}
	viz, err := s.VisualizeDepth()
	if err != nil {
		return err
	}

	outputs := []struct {
		name string
		img  image.Image
	}{
		{"color", color},
		{"intensity", intensity},
		{"depth_on_color", rimage.Colorize(depth, 0, 0, nil)},
		{"depth", viz},
	}
	g, _ := errgroup.WithContext(ctx)
	for _, out := range outputs {
		out := out
		g.Go(func() error {
			return writeImage(filepath.Join(dir, fmt.Sprintf("%04d_%s.%s", index, out.name, ext)), out.img, encode)
		})
	}
	return g.Wait()
}

func writeImage(path string, img image.Image, encode encodeFunc) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return errors.Wrapf(encode(f, img), "cannot encode %s", path)
}
