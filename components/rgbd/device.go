// Package rgbd acquires synchronized depth and color frames from an RGB-D sensor, keeps the
// per-pixel correspondences between its depth, color and camera spaces, and answers
// alignment and coordinate queries against them.
package rgbd

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
)

var (
	// ErrDeviceUnavailable is returned when there is no sensor to talk to, or it cannot be opened.
	ErrDeviceUnavailable = errors.New("rgbd device unavailable")
	// ErrNoFrameAvailable means a stream has no new frame yet. It is not a fault.
	ErrNoFrameAvailable = errors.New("no frame available")
	// ErrMappingUnavailable means the coordinate mapper failed, or its tables are not
	// current, so no alignment or query can be answered.
	ErrMappingUnavailable = errors.New("coordinate mapping unavailable")
)

// FrameKind identifies the modality of a stream or frame.
type FrameKind int

// The frame kinds a device serves.
const (
	DepthFrame FrameKind = iota
	ColorFrame
)

func (k FrameKind) String() string {
	switch k {
	case DepthFrame:
		return "depth"
	case ColorFrame:
		return "color"
	default:
		return "unknown"
	}
}

// Stream describes one frame source of a device.
type Stream struct {
	Kind FrameKind
	// Grid is the native frame size, or empty if the device does not advertise it.
	Grid transform.Grid
}

// A Device is an RGB-D sensor serving a depth and a color stream.
type Device interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	IsOpen() bool

	DepthStream() Stream
	ColorStream() Stream

	// AcquireLatestFrame returns the newest frame of s without blocking. It returns an
	// error satisfying errors.Is(err, ErrNoFrameAvailable) when there is none yet. The
	// handle must be released.
	AcquireLatestFrame(ctx context.Context, s Stream) (FrameHandle, error)
}

// A FrameHandle is a device-owned frame. Its pixels are only valid until Release.
type FrameHandle interface {
	Kind() FrameKind
	Bounds() image.Rectangle
	// CopyDepthTo copies a depth frame into dst, which must have the frame's size.
	CopyDepthTo(dst *rimage.DepthMap) error
	// CopyColorTo copies a color frame into dst, which must have the frame's size.
	CopyColorTo(dst *image.RGBA) error
	// ReliableRange is the sensor's reliable distance range for a depth frame, or zeros.
	ReliableRange() (rimage.Depth, rimage.Depth)
	Release() error
}
