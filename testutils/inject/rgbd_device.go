package inject

import (
	"context"
	"image"

	"go.viam.com/rgbd/components/rgbd"
	"go.viam.com/rgbd/rimage"
)

// Device is an injected rgbd device.
type Device struct {
	rgbd.Device
	OpenFunc               func(ctx context.Context) error
	CloseFunc              func(ctx context.Context) error
	IsOpenFunc             func() bool
	DepthStreamFunc        func() rgbd.Stream
	ColorStreamFunc        func() rgbd.Stream
	AcquireLatestFrameFunc func(ctx context.Context, s rgbd.Stream) (rgbd.FrameHandle, error)
}

// Open calls the injected Open or the real version.
func (d *Device) Open(ctx context.Context) error {
	if d.OpenFunc == nil {
		return d.Device.Open(ctx)
	}
	return d.OpenFunc(ctx)
}

// Close calls the injected Close or the real version.
func (d *Device) Close(ctx context.Context) error {
	if d.CloseFunc == nil {
		return d.Device.Close(ctx)
	}
	return d.CloseFunc(ctx)
}

// IsOpen calls the injected IsOpen or the real version.
func (d *Device) IsOpen() bool {
	if d.IsOpenFunc == nil {
		return d.Device.IsOpen()
	}
	return d.IsOpenFunc()
}

// DepthStream calls the injected DepthStream or the real version.
func (d *Device) DepthStream() rgbd.Stream {
	if d.DepthStreamFunc == nil {
		return d.Device.DepthStream()
	}
	return d.DepthStreamFunc()
}

// ColorStream calls the injected ColorStream or the real version.
func (d *Device) ColorStream() rgbd.Stream {
	if d.ColorStreamFunc == nil {
		return d.Device.ColorStream()
	}
	return d.ColorStreamFunc()
}

// AcquireLatestFrame calls the injected AcquireLatestFrame or the real version.
func (d *Device) AcquireLatestFrame(ctx context.Context, s rgbd.Stream) (rgbd.FrameHandle, error) {
	if d.AcquireLatestFrameFunc == nil {
		return d.Device.AcquireLatestFrame(ctx, s)
	}
	return d.AcquireLatestFrameFunc(ctx, s)
}

// FrameHandle is an injected frame handle.
type FrameHandle struct {
	rgbd.FrameHandle
	KindFunc          func() rgbd.FrameKind
	BoundsFunc        func() image.Rectangle
	CopyDepthToFunc   func(dst *rimage.DepthMap) error
	CopyColorToFunc   func(dst *image.RGBA) error
	ReliableRangeFunc func() (rimage.Depth, rimage.Depth)
	ReleaseFunc       func() error
}

// Kind calls the injected Kind or the real version.
func (h *FrameHandle) Kind() rgbd.FrameKind {
	if h.KindFunc == nil {
		return h.FrameHandle.Kind()
	}
	return h.KindFunc()
}

// Bounds calls the injected Bounds or the real version.
func (h *FrameHandle) Bounds() image.Rectangle {
	if h.BoundsFunc == nil {
		return h.FrameHandle.Bounds()
	}
	return h.BoundsFunc()
}

// CopyDepthTo calls the injected CopyDepthTo or the real version.
func (h *FrameHandle) CopyDepthTo(dst *rimage.DepthMap) error {
	if h.CopyDepthToFunc == nil {
		return h.FrameHandle.CopyDepthTo(dst)
	}
	return h.CopyDepthToFunc(dst)
}

// CopyColorTo calls the injected CopyColorTo or the real version.
func (h *FrameHandle) CopyColorTo(dst *image.RGBA) error {
	if h.CopyColorToFunc == nil {
		return h.FrameHandle.CopyColorTo(dst)
	}
	return h.CopyColorToFunc(dst)
}

// ReliableRange calls the injected ReliableRange or the real version.
func (h *FrameHandle) ReliableRange() (rimage.Depth, rimage.Depth) {
	if h.ReliableRangeFunc == nil {
		return h.FrameHandle.ReliableRange()
	}
	return h.ReliableRangeFunc()
}

// Release calls the injected Release or the real version.
func (h *FrameHandle) Release() error {
	if h.ReleaseFunc == nil {
		return h.FrameHandle.Release()
	}
	return h.ReleaseFunc()
}
