package rgbd

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/rgbd/rimage"
)

// AcquireSynchronizedPair takes the latest depth and color frames from dev and copies both
// into buffers from arena, or freshly allocated ones when arena is nil. Both frame handles are
// released before it returns, whatever the outcome, and it never returns one frame without
// the other. When either stream has no frame yet the error satisfies
// errors.Is(err, ErrNoFrameAvailable).
func AcquireSynchronizedPair(ctx context.Context, dev Device, arena *FrameArena) (pair *FramePair, err error) {
	defer func() {
		if err != nil {
			pair = nil
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dev == nil || !dev.IsOpen() {
		return nil, ErrDeviceUnavailable
	}

	depthHandle, err := acquire(ctx, dev, dev.DepthStream(), DepthFrame)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, errors.Wrap(depthHandle.Release(), "cannot release depth frame"))
	}()

	colorHandle, err := acquire(ctx, dev, dev.ColorStream(), ColorFrame)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, errors.Wrap(colorHandle.Release(), "cannot release color frame"))
	}()

	if arena == nil {
		arena = NewFrameArena()
	}
	slot := arena.spare(depthHandle.Bounds(), colorHandle.Bounds())
	if err := depthHandle.CopyDepthTo(slot.Depth); err != nil {
		return nil, errors.Wrap(err, "cannot copy depth frame")
	}
	slot.Depth.SetReliableRange(reliableRange(depthHandle))
	if err := colorHandle.CopyColorTo(slot.Color); err != nil {
		return nil, errors.Wrap(err, "cannot copy color frame")
	}
	return arena.commit(), nil
}

func acquire(ctx context.Context, dev Device, s Stream, want FrameKind) (FrameHandle, error) {
	h, err := dev.AcquireLatestFrame(ctx, s)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot acquire %s frame", want)
	}
	if h == nil {
		return nil, errors.Wrapf(ErrNoFrameAvailable, "%s stream returned no handle", want)
	}
	if h.Kind() != want {
		return nil, multierr.Combine(
			errors.Errorf("%s stream returned a %s frame", want, h.Kind()),
			h.Release(),
		)
	}
	return h, nil
}

func reliableRange(h FrameHandle) (rimage.Depth, rimage.Depth) {
	minReliable, maxReliable := h.ReliableRange()
	if maxReliable <= minReliable {
		return 0, 0
	}
	return minReliable, maxReliable
}
