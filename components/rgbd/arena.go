package rgbd

import (
	"image"

	"go.viam.com/rgbd/rimage"
)

// FramePair is one depth frame and one color frame acquired in the same cycle. Both are
// owned by the process.
type FramePair struct {
	Depth *rimage.DepthMap
	Color *image.RGBA
}

// A FrameArena owns the buffers frames are copied into. It holds two pairs and hands out the
// one that is not the most recently committed, so a failed acquisition never clobbers the
// pair a session is still serving.
type FrameArena struct {
	slots [2]FramePair
	next  int
}

// NewFrameArena returns an empty arena; buffers are allocated on first use.
func NewFrameArena() *FrameArena {
	return &FrameArena{}
}

// spare returns the slot to fill, with buffers sized to the given bounds.
func (a *FrameArena) spare(depthBounds, colorBounds image.Rectangle) *FramePair {
	slot := &a.slots[a.next]
	w, h := depthBounds.Dx(), depthBounds.Dy()
	if slot.Depth == nil || slot.Depth.Width() != w || slot.Depth.Height() != h {
		slot.Depth = rimage.NewEmptyDepthMap(w, h)
	}
	colorRect := image.Rect(0, 0, colorBounds.Dx(), colorBounds.Dy())
	if slot.Color == nil || slot.Color.Bounds() != colorRect {
		slot.Color = image.NewRGBA(colorRect)
	}
	return slot
}

// commit marks the spare slot as the served pair and returns a copy of its header.
func (a *FrameArena) commit() *FramePair {
	pair := a.slots[a.next]
	a.next = 1 - a.next
	return &pair
}
