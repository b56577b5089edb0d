package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rgbd/rimage"
)

// Homography is a 3x3 matrix mapping the image plane of one camera onto another's.
type Homography struct {
	m *mat.Dense
}

// NewHomography takes the 9 entries in row-major order.
func NewHomography(vals []float64) (*Homography, error) {
	if len(vals) != 9 {
		return nil, errors.Errorf("input to NewHomography must have length of 9. Has length of %d", len(vals))
	}
	return &Homography{mat.NewDense(3, 3, append([]float64(nil), vals...))}, nil
}

// At returns the entry at row, col.
func (h *Homography) At(row, col int) float64 {
	return h.m.At(row, col)
}

// Apply maps pt. ok is false when pt maps to the line at infinity or behind it.
func (h *Homography) Apply(pt r2.Point) (r2.Point, bool) {
	x := h.At(0, 0)*pt.X + h.At(0, 1)*pt.Y + h.At(0, 2)
	y := h.At(1, 0)*pt.X + h.At(1, 1)*pt.Y + h.At(1, 2)
	w := h.At(2, 0)*pt.X + h.At(2, 1)*pt.Y + h.At(2, 2)
	if w <= 0 {
		return r2.Point{}, false
	}
	return r2.Point{X: x / w, Y: y / w}, true
}

// Inverse returns the homography mapping back.
func (h *Homography) Inverse() (*Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(h.m); err != nil {
		return nil, errors.Wrap(err, "homography is not invertible")
	}
	return &Homography{&inv}, nil
}

// HomographyMapper is a CoordinateMapper for rigs where the depth and color images are
// related by a homography, as when both cameras look at a distant or planar scene. Camera
// space comes from the depth intrinsics alone.
type HomographyMapper struct {
	Depth        *PinholeCameraIntrinsics `json:"depth_intrinsics"`
	ColorGrid    Grid                     `json:"color_grid"`
	DepthToColor []float64                `json:"depth_to_color_homography"`
}

// CheckValid checks the intrinsics and that the homography is invertible.
func (hm *HomographyMapper) CheckValid() error {
	if err := hm.Depth.CheckValid(); err != nil {
		return errors.Wrap(err, "depth")
	}
	if hm.ColorGrid.Empty() {
		return errors.New("color_grid must be set")
	}
	_, _, err := hm.homographies()
	return err
}

func (hm *HomographyMapper) homographies() (*Homography, *Homography, error) {
	toColor, err := NewHomography(hm.DepthToColor)
	if err != nil {
		return nil, nil, err
	}
	toDepth, err := toColor.Inverse()
	if err != nil {
		return nil, nil, err
	}
	return toColor, toDepth, nil
}

func (hm *HomographyMapper) checkDepth(dm *rimage.DepthMap) error {
	if dm == nil {
		return errors.New("input DepthMap is nil")
	}
	if GridOf(dm.Bounds()) != hm.Depth.Grid() {
		return errors.Errorf("depth map and intrinsics don't match DepthMap(%d,%d) != Intrinsics(%d,%d)",
			dm.Width(), dm.Height(), hm.Depth.Width, hm.Depth.Height)
	}
	return nil
}

// MapDepthFrameToColorSpace maps every depth pixel with a reading through the homography.
func (hm *HomographyMapper) MapDepthFrameToColorSpace(dm *rimage.DepthMap) ([]ColorSpacePoint, error) {
	if err := hm.checkDepth(dm); err != nil {
		return nil, err
	}
	toColor, _, err := hm.homographies()
	if err != nil {
		return nil, err
	}
	grid := GridOf(dm.Bounds())
	out := make([]ColorSpacePoint, grid.Area())
	for i := range out {
		out[i] = InvalidSpacePoint()
		p := grid.Point(i)
		if dm.GetDepth(p.X, p.Y) == 0 {
			continue
		}
		c, ok := toColor.Apply(r2.Point{X: float64(p.X), Y: float64(p.Y)})
		if !ok {
			continue
		}
		out[i] = ColorSpacePoint{float32(c.X), float32(c.Y)}
	}
	return out, nil
}

// MapColorFrameToDepthSpace maps every color pixel back through the homography. Color
// pixels that land outside the depth image, or on a pixel without a reading, get the
// sentinel.
func (hm *HomographyMapper) MapColorFrameToDepthSpace(dm *rimage.DepthMap) ([]DepthSpacePoint, error) {
	if err := hm.checkDepth(dm); err != nil {
		return nil, err
	}
	_, toDepth, err := hm.homographies()
	if err != nil {
		return nil, err
	}
	depthGrid := GridOf(dm.Bounds())
	out := make([]DepthSpacePoint, hm.ColorGrid.Area())
	for i := range out {
		out[i] = InvalidSpacePoint()
		c := hm.ColorGrid.Point(i)
		d, ok := toDepth.Apply(r2.Point{X: float64(c.X), Y: float64(c.Y)})
		if !ok {
			continue
		}
		dp := DepthSpacePoint{float32(d.X), float32(d.Y)}
		px := dp.Round()
		if !depthGrid.In(px) || dm.GetDepth(px.X, px.Y) == 0 {
			continue
		}
		out[i] = dp
	}
	return out, nil
}

// MapDepthFrameToCameraSpace back-projects every depth pixel with the depth intrinsics.
func (hm *HomographyMapper) MapDepthFrameToCameraSpace(dm *rimage.DepthMap) ([]CameraSpacePoint, error) {
	if err := hm.checkDepth(dm); err != nil {
		return nil, err
	}
	grid := GridOf(dm.Bounds())
	out := make([]CameraSpacePoint, grid.Area())
	for i := range out {
		p := grid.Point(i)
		z := dm.GetDepth(p.X, p.Y)
		if z == 0 {
			out[i] = InvalidCameraSpacePoint()
			continue
		}
		out[i] = NewCameraSpacePoint(hm.Depth.PixelToPoint(float64(p.X), float64(p.Y), float64(z)/1000))
	}
	return out, nil
}

// MapCameraPointToDepthSpace projects p with the depth intrinsics.
func (hm *HomographyMapper) MapCameraPointToDepthSpace(p CameraSpacePoint) (DepthSpacePoint, error) {
	if !p.Valid() {
		return InvalidSpacePoint(), nil
	}
	x, y, ok := hm.Depth.PointToPixel(r3.Vector{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)})
	if !ok {
		return InvalidSpacePoint(), nil
	}
	return DepthSpacePoint{float32(x), float32(y)}, nil
}
