package rgbd

import (
	"context"
	"image"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/image/draw"

	"go.viam.com/rgbd/logging"
	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
)

// A Session drives one device: each Cycle acquires a frame pair and refreshes the
// correspondence tables that alignment and queries read. A Session is not safe for
// concurrent use.
type Session struct {
	id     string
	dev    Device
	conf   Config
	logger logging.Logger

	cache   *CorrespondenceCache
	arena   *FrameArena
	scale   ScaleFactors
	palette *rimage.Palette

	depthRes, colorRes transform.Grid

	pair  *FramePair
	stats sessionStats
}

type sessionStats struct {
	cycles          atomic.Uint64
	emptyPolls      atomic.Uint64
	mappingFailures atomic.Uint64
	deviceFaults    atomic.Uint64
}

// SessionStats is a snapshot of a session's counters.
type SessionStats struct {
	Cycles          uint64
	EmptyPolls      uint64
	MappingFailures uint64
	DeviceFaults    uint64
	TablesCurrent   bool
}

// String renders the counters as a table.
func (st SessionStats) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Cycles", "Empty polls", "Mapping failures", "Device faults", "Tables current"})
	t.AppendRow(table.Row{st.Cycles, st.EmptyPolls, st.MappingFailures, st.DeviceFaults, st.TablesCurrent})
	return t.Render()
}

// NewSession validates conf, opens dev if needed and returns a session with no frames yet.
// mapper may be nil when conf carries a calibration.
func NewSession(
	ctx context.Context,
	dev Device,
	mapper transform.CoordinateMapper,
	conf *Config,
	logger logging.Logger,
) (*Session, error) {
	if conf == nil {
		return nil, errors.New("rgbd session needs a config")
	}
	if err := conf.Validate("rgbd"); err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, ErrDeviceUnavailable
	}
	if mapper == nil {
		if mapper = conf.mapper(); mapper == nil {
			return nil, errors.Wrap(ErrMappingUnavailable, "no coordinate mapper or calibration configured")
		}
	}
	if err := checkStream(dev.DepthStream(), DepthFrame, conf.DepthGrid); err != nil {
		return nil, err
	}
	if err := checkStream(dev.ColorStream(), ColorFrame, conf.ColorGrid); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger = logger.Sublogger("session")
	if !dev.IsOpen() {
		if err := dev.Open(ctx); err != nil {
			return nil, multierr.Combine(ErrDeviceUnavailable, err)
		}
		logger.Infow("opened device", "session", id, "depth_grid", conf.DepthGrid, "color_grid", conf.ColorGrid)
	}

	palette, _ := rimage.PaletteNamed(conf.Visualizer.Palette)
	depthRes, colorRes := conf.depthResolution(), conf.colorResolution()
	return &Session{
		id:       id,
		dev:      dev,
		conf:     *conf,
		logger:   logger,
		cache:    NewCorrespondenceCache(mapper, logger.Sublogger("cache")),
		arena:    NewFrameArena(),
		scale:    NewScaleFactors(conf.DepthGrid, conf.ColorGrid, depthRes, colorRes),
		palette:  palette,
		depthRes: depthRes,
		colorRes: colorRes,
	}, nil
}

func checkStream(s Stream, kind FrameKind, configured transform.Grid) error {
	if s.Kind != kind {
		return errors.Wrapf(ErrDeviceUnavailable, "%s stream reports kind %s", kind, s.Kind)
	}
	if !s.Grid.Empty() && s.Grid != configured {
		return errors.Wrapf(ErrDeviceUnavailable, "%s stream is %dx%d but %dx%d is configured",
			kind, s.Grid.Width, s.Grid.Height, configured.Width, configured.Height)
	}
	return nil
}

// Cycle acquires a new frame pair and refreshes the correspondence tables from it. It
// reports whether a new pair is now current. An empty poll returns (false, nil) and keeps
// the previous pair and tables. A device fault drops the pair and invalidates the tables; a
// mapping failure keeps the new frames but leaves the tables unusable until the next
// successful cycle.
func (s *Session) Cycle(ctx context.Context) (bool, error) {
	cycle := s.stats.cycles.Inc()

	pair, err := AcquireSynchronizedPair(ctx, s.dev, s.arena)
	switch {
	case errors.Is(err, ErrNoFrameAvailable):
		s.stats.emptyPolls.Inc()
		s.logger.Debugw("no frame available", "cycle", cycle)
		return false, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false, err
	case err != nil:
		s.stats.deviceFaults.Inc()
		s.cache.Invalidate()
		s.pair = nil
		s.logger.Warnw("cannot acquire frame pair", "cycle", cycle, "error", err)
		return false, err
	}

	s.pair = pair
	if err := s.cache.Refresh(pair.Depth, s.conf.ColorGrid); err != nil {
		s.stats.mappingFailures.Inc()
		s.logger.Warnw("cannot refresh correspondence tables", "cycle", cycle, "error", err)
		return false, err
	}
	return true, nil
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// CurrentPair returns the frames of the last cycle that acquired a pair, or nil. They stay
// valid until the second following successful acquisition.
func (s *Session) CurrentPair() *FramePair {
	return s.pair
}

// ScaleFactors returns the configured to native scale factors.
func (s *Session) ScaleFactors() ScaleFactors {
	return s.scale
}

// Stats returns a SessionStats snapshot.
func (s *Session) Stats() SessionStats {
	return SessionStats{
		Cycles:          s.stats.cycles.Load(),
		EmptyPolls:      s.stats.emptyPolls.Load(),
		MappingFailures: s.stats.mappingFailures.Load(),
		DeviceFaults:    s.stats.deviceFaults.Load(),
		TablesCurrent:   s.cache.Current(),
	}
}

// IsAvailable reports whether the device is open.
func (s *Session) IsAvailable() bool {
	return s.dev.IsOpen()
}

// Close drops the current frames and tables and closes the device.
func (s *Session) Close(ctx context.Context) error {
	s.pair = nil
	s.cache.Invalidate()
	if !s.dev.IsOpen() {
		return nil
	}
	if err := s.dev.Close(ctx); err != nil {
		return errors.Wrap(err, "cannot close device")
	}
	s.logger.Infow("closed device", "session", s.id)
	return nil
}

func (s *Session) currentPair() (*FramePair, error) {
	if s.pair == nil {
		return nil, errors.Wrap(ErrMappingUnavailable, "no current frame pair")
	}
	return s.pair, nil
}

// AlignedColor returns the current color frame resampled into the depth grid, resized to
// aligned_output when configured.
func (s *Session) AlignedColor() (*image.RGBA, error) {
	pair, err := s.currentPair()
	if err != nil {
		return nil, err
	}
	table, err := s.cache.DepthToColor()
	if err != nil {
		return nil, err
	}
	aligned, err := transform.AlignColorToDepth(pair.Color, table)
	if err != nil {
		return nil, err
	}
	if s.conf.AlignedOutput == nil {
		return aligned, nil
	}
	return transform.ResizeRGBA(aligned, outputSize(s.conf.AlignedOutput), s.conf.ResizeInterpolation)
}

// AlignedIntensity returns the luminance of the current color frame resampled into the
// depth grid, resized to aligned_output when configured.
func (s *Session) AlignedIntensity() (*image.Gray, error) {
	pair, err := s.currentPair()
	if err != nil {
		return nil, err
	}
	table, err := s.cache.DepthToColor()
	if err != nil {
		return nil, err
	}
	gray := image.NewGray(pair.Color.Bounds())
	draw.Draw(gray, gray.Bounds(), pair.Color, pair.Color.Bounds().Min, draw.Src)
	aligned, err := transform.AlignIntensityToDepth(gray, table)
	if err != nil {
		return nil, err
	}
	if s.conf.AlignedOutput == nil {
		return aligned, nil
	}
	return transform.ResizeGray(aligned, outputSize(s.conf.AlignedOutput), s.conf.ResizeInterpolation)
}

// AlignedDepth returns the current depth frame resampled into the color grid, resized to
// aligned_output when configured. Color pixels without depth hold rimage.MaxDepth.
func (s *Session) AlignedDepth() (*rimage.DepthMap, error) {
	pair, err := s.currentPair()
	if err != nil {
		return nil, err
	}
	table, err := s.cache.ColorToDepth()
	if err != nil {
		return nil, err
	}
	aligned, err := transform.AlignDepthToColor(pair.Depth, table)
	if err != nil {
		return nil, err
	}
	if s.conf.AlignedOutput == nil {
		return aligned, nil
	}
	return transform.ResizeDepth(aligned, outputSize(s.conf.AlignedOutput), s.conf.ResizeInterpolation)
}

// VisualizeDepth colorizes the current raw depth frame. The range comes from the visualizer
// config, else the frame's reliable range, else the default range.
func (s *Session) VisualizeDepth() (*image.RGBA, error) {
	if s.pair == nil {
		return nil, errors.Wrap(ErrNoFrameAvailable, "no depth frame to visualize")
	}
	minReliable, maxReliable := s.pair.Depth.ReliableRange()
	if vis := s.conf.Visualizer; vis.MaxReliableMM > vis.MinReliableMM {
		minReliable, maxReliable = vis.MinReliableMM, vis.MaxReliableMM
	}
	return rimage.Colorize(s.pair.Depth, minReliable, maxReliable, s.palette), nil
}

func outputSize(g *transform.Grid) image.Point {
	return image.Point{g.Width, g.Height}
}
