// Package fake implements an RGB-D device that serves synthetic frames: a color gradient and
// a tilted depth plane with a column of missing readings.
package fake

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/rgbd/components/rgbd"
	"go.viam.com/rgbd/logging"
	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
)

// Config are the attributes of the fake device.
type Config struct {
	DepthGrid transform.Grid `json:"depth_grid"`
	ColorGrid transform.Grid `json:"color_grid"`
	// FramePeriod is the time between frames of each stream. Zero serves a frame on every call.
	FramePeriod time.Duration `json:"frame_period,omitempty"`
}

// Validate checks that the config attributes are valid for a fake device.
func (conf *Config) Validate(path string) error {
	if conf.DepthGrid.Empty() || conf.ColorGrid.Empty() {
		return errors.Errorf("%s: depth_grid and color_grid must both be set", path)
	}
	if conf.FramePeriod < 0 {
		return errors.Errorf("%s: frame_period cannot be negative, got %s", path, conf.FramePeriod)
	}
	return nil
}

// Device is a fake rgbd.Device. Set FailDepth or FailColor to make acquisition of that
// stream fail.
type Device struct {
	conf   Config
	clk    clock.Clock
	logger logging.Logger

	mu        sync.Mutex
	open      bool
	epoch     time.Time
	lastTick  map[rgbd.FrameKind]int64
	FailDepth error
	FailColor error
	FailOpen  error

	sequence atomic.Uint64
	acquired atomic.Int64
	released atomic.Int64
}

// NewDevice returns a closed fake device. clk drives the frame cadence; nil uses the wall clock.
func NewDevice(conf Config, clk clock.Clock, logger logging.Logger) (*Device, error) {
	if err := conf.Validate("fake"); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Device{
		conf:     conf,
		clk:      clk,
		logger:   logger,
		lastTick: map[rgbd.FrameKind]int64{},
	}, nil
}

// Open opens the device.
func (d *Device) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailOpen != nil {
		return d.FailOpen
	}
	d.open = true
	d.epoch = d.clk.Now()
	d.lastTick = map[rgbd.FrameKind]int64{}
	return nil
}

// Close closes the device.
func (d *Device) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	if n := d.Outstanding(); n != 0 {
		d.logger.Warnw("closing with outstanding frames", "outstanding", n)
	}
	return nil
}

// IsOpen reports whether Open was called without a later Close.
func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// DepthStream returns the depth stream.
func (d *Device) DepthStream() rgbd.Stream {
	return rgbd.Stream{Kind: rgbd.DepthFrame, Grid: d.conf.DepthGrid}
}

// ColorStream returns the color stream.
func (d *Device) ColorStream() rgbd.Stream {
	return rgbd.Stream{Kind: rgbd.ColorFrame, Grid: d.conf.ColorGrid}
}

// AcquireLatestFrame serves a frame of s once per frame period. Periods are counted from
// Open for all streams alike, so depth and color frames become available on the same ticks.
func (d *Device) AcquireLatestFrame(ctx context.Context, s rgbd.Stream) (rgbd.FrameHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return nil, rgbd.ErrDeviceUnavailable
	}
	switch s.Kind {
	case rgbd.DepthFrame:
		if d.FailDepth != nil {
			return nil, d.FailDepth
		}
	case rgbd.ColorFrame:
		if d.FailColor != nil {
			return nil, d.FailColor
		}
	default:
		return nil, errors.Errorf("unknown stream %s", s.Kind)
	}

	if d.conf.FramePeriod > 0 {
		tick := int64(d.clk.Now().Sub(d.epoch) / d.conf.FramePeriod)
		if last, ok := d.lastTick[s.Kind]; ok && tick <= last {
			return nil, rgbd.ErrNoFrameAvailable
		}
		d.lastTick[s.Kind] = tick
	}

	grid := d.conf.DepthGrid
	if s.Kind == rgbd.ColorFrame {
		grid = d.conf.ColorGrid
	}
	d.acquired.Inc()
	return &frameHandle{
		dev:      d,
		kind:     s.Kind,
		grid:     grid,
		sequence: d.sequence.Inc(),
	}, nil
}

// Outstanding is the number of acquired handles not yet released.
func (d *Device) Outstanding() int64 {
	return d.acquired.Load() - d.released.Load()
}

// Acquired is the number of handles ever handed out.
func (d *Device) Acquired() int64 {
	return d.acquired.Load()
}

// Released is the number of handles released.
func (d *Device) Released() int64 {
	return d.released.Load()
}

type frameHandle struct {
	dev      *Device
	kind     rgbd.FrameKind
	grid     transform.Grid
	sequence uint64
	released atomic.Bool
}

func (h *frameHandle) Kind() rgbd.FrameKind {
	return h.kind
}

func (h *frameHandle) Bounds() image.Rectangle {
	return h.grid.Bounds()
}

func (h *frameHandle) check(kind rgbd.FrameKind, dst image.Rectangle) error {
	if h.released.Load() {
		return errors.New("frame already released")
	}
	if h.kind != kind {
		return errors.Errorf("cannot copy a %s frame as %s", h.kind, kind)
	}
	if dst != h.grid.Bounds() {
		return errors.Errorf("destination is %v, frame is %v", dst, h.grid.Bounds())
	}
	return nil
}

func (h *frameHandle) CopyDepthTo(dst *rimage.DepthMap) error {
	if err := h.check(rgbd.DepthFrame, dst.Bounds()); err != nil {
		return err
	}
	for y := 0; y < h.grid.Height; y++ {
		for x := 0; x < h.grid.Width; x++ {
			dst.Set(x, y, PlaneDepth(x, y))
		}
	}
	return nil
}

func (h *frameHandle) CopyColorTo(dst *image.RGBA) error {
	if err := h.check(rgbd.ColorFrame, dst.Bounds()); err != nil {
		return err
	}
	for y := 0; y < h.grid.Height; y++ {
		for x := 0; x < h.grid.Width; x++ {
			dst.SetRGBA(x, y, GradientColor(h.grid, x, y, h.sequence))
		}
	}
	return nil
}

func (h *frameHandle) ReliableRange() (rimage.Depth, rimage.Depth) {
	if h.kind != rgbd.DepthFrame {
		return 0, 0
	}
	return rimage.DefaultMinReliable, rimage.DefaultMaxReliable
}

func (h *frameHandle) Release() error {
	if h.released.CompareAndSwap(false, true) {
		h.dev.released.Inc()
	}
	return nil
}

// PlaneDepth is the depth served at (x, y): a plane receding 4mm per row from 1000mm, with
// no reading in column 0.
func PlaneDepth(x, y int) rimage.Depth {
	if x == 0 {
		return 0
	}
	return rimage.Depth(1000 + 4*y)
}

// GradientColor is the color served at (x, y) of the sequence'th frame.
func GradientColor(grid transform.Grid, x, y int, sequence uint64) color.RGBA {
	return color.RGBA{
		R: uint8(x * 255 / max(grid.Width-1, 1)),
		G: uint8(y * 255 / max(grid.Height-1, 1)),
		B: uint8(sequence),
		A: 255,
	}
}
