package transform

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/utils"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width == 0 || params.Height == 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// Grid returns the image size the intrinsics were calibrated for.
func (params *PinholeCameraIntrinsics) Grid() Grid {
	return Grid{Width: params.Width, Height: params.Height}
}

// Scaled returns the intrinsics of the same lens at a different resolution.
func (params *PinholeCameraIntrinsics) Scaled(grid Grid) *PinholeCameraIntrinsics {
	wRatio := float64(grid.Width) / float64(params.Width)
	hRatio := float64(grid.Height) / float64(params.Height)
	return &PinholeCameraIntrinsics{
		Width:  grid.Width,
		Height: grid.Height,
		Fx:     params.Fx * wRatio,
		Fy:     params.Fy * hRatio,
		Ppx:    params.Ppx * wRatio,
		Ppy:    params.Ppy * hRatio,
	}
}

// PixelToPoint transforms a pixel with depth z to a 3D point in the same units as z.
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) r3.Vector {
	xOverZ := (x - params.Ppx) / params.Fx
	yOverZ := (y - params.Ppy) / params.Fy
	return r3.Vector{X: xOverZ * z, Y: yOverZ * z, Z: z}
}

// PointToPixel projects a 3D point to sub-pixel coordinates in the image plane. ok is
// false for points at or behind the camera.
func (params *PinholeCameraIntrinsics) PointToPixel(pt r3.Vector) (float64, float64, bool) {
	if pt.Z <= 0 {
		return -1, -1, false
	}
	return (pt.X/pt.Z)*params.Fx + params.Ppx, (pt.Y/pt.Z)*params.Fy + params.Ppy, true
}

// Extrinsics is the rigid body transform from the depth camera frame to the color camera frame.
type Extrinsics struct {
	RotationMatrix    []float64 `json:"rotation"`
	TranslationVector []float64 `json:"translation_m"`
}

// CheckValid checks the matrix and vector sizes.
func (e *Extrinsics) CheckValid() error {
	if e == nil {
		return nil
	}
	if len(e.RotationMatrix) != 9 {
		return errors.Errorf("rotation matrix needs 9 entries, has %d", len(e.RotationMatrix))
	}
	if len(e.TranslationVector) != 3 {
		return errors.Errorf("translation vector needs 3 entries, has %d", len(e.TranslationVector))
	}
	return nil
}

// TransformPointToPoint applies the rotation then the translation to pt. A nil Extrinsics
// is the identity.
func (e *Extrinsics) TransformPointToPoint(pt r3.Vector) r3.Vector {
	if e == nil {
		return pt
	}
	return e.transformer()(pt)
}

func (e *Extrinsics) transformer() func(r3.Vector) r3.Vector {
	if e == nil {
		return func(pt r3.Vector) r3.Vector { return pt }
	}
	rot := mat.NewDense(3, 3, e.RotationMatrix)
	t := r3.Vector{X: e.TranslationVector[0], Y: e.TranslationVector[1], Z: e.TranslationVector[2]}
	in := mat.NewVecDense(3, nil)
	var out mat.VecDense
	return func(pt r3.Vector) r3.Vector {
		in.SetVec(0, pt.X)
		in.SetVec(1, pt.Y)
		in.SetVec(2, pt.Z)
		out.MulVec(rot, in)
		return r3.Vector{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}.Add(t)
	}
}

// PinholeMapper is a CoordinateMapper for a depth and a color camera described by pinhole
// intrinsics, optional lens distortion, and the extrinsics between them.
type PinholeMapper struct {
	Depth           *PinholeCameraIntrinsics `json:"depth_intrinsics"`
	Color           *PinholeCameraIntrinsics `json:"color_intrinsics"`
	DepthDistortion *BrownConrady            `json:"depth_distortion,omitempty"`
	ColorDistortion *BrownConrady            `json:"color_distortion,omitempty"`
	DepthToColor    *Extrinsics              `json:"depth_to_color,omitempty"`
}

// project images pt through a distorting lens.
func project(in *PinholeCameraIntrinsics, lens *BrownConrady, pt r3.Vector) (float64, float64, bool) {
	if pt.Z <= 0 {
		return -1, -1, false
	}
	x, y := lens.Distort(pt.X/pt.Z, pt.Y/pt.Z)
	return in.PointToPixel(r3.Vector{X: x, Y: y, Z: 1})
}

// backProject is the inverse of project for a point at depth z.
func backProject(in *PinholeCameraIntrinsics, lens *BrownConrady, px, py, z float64) r3.Vector {
	n := in.PixelToPoint(px, py, 1)
	x, y := lens.Undistort(n.X, n.Y)
	return r3.Vector{X: x * z, Y: y * z, Z: z}
}

// CheckValid checks both intrinsics and the extrinsics.
func (pm *PinholeMapper) CheckValid() error {
	if err := pm.Depth.CheckValid(); err != nil {
		return errors.Wrap(err, "depth")
	}
	if err := pm.Color.CheckValid(); err != nil {
		return errors.Wrap(err, "color")
	}
	return pm.DepthToColor.CheckValid()
}

func (pm *PinholeMapper) checkDepth(dm *rimage.DepthMap) error {
	if dm == nil {
		return errors.New("input DepthMap is nil")
	}
	if dm.Width() != pm.Depth.Width || dm.Height() != pm.Depth.Height {
		return errors.Errorf("depth map and intrinsics don't match DepthMap(%d,%d) != Intrinsics(%d,%d)",
			dm.Width(), dm.Height(), pm.Depth.Width, pm.Depth.Height)
	}
	return nil
}

// depthPixelToPoint returns the camera point of depth pixel (x, y) in meters; ok is false
// when the sensor reported no depth there.
func (pm *PinholeMapper) depthPixelToPoint(dm *rimage.DepthMap, x, y int) (r3.Vector, bool) {
	z := dm.GetDepth(x, y)
	if z == 0 {
		return r3.Vector{}, false
	}
	return backProject(pm.Depth, pm.DepthDistortion, float64(x), float64(y), float64(z)/1000), true
}

// MapDepthFrameToCameraSpace back-projects every depth pixel.
func (pm *PinholeMapper) MapDepthFrameToCameraSpace(dm *rimage.DepthMap) ([]CameraSpacePoint, error) {
	if err := pm.checkDepth(dm); err != nil {
		return nil, err
	}
	out := make([]CameraSpacePoint, dm.Width()*dm.Height())
	err := utils.ParallelForEachRow(dm.Height(), func(y int) {
		for x := 0; x < dm.Width(); x++ {
			i := y*dm.Width() + x
			pt, ok := pm.depthPixelToPoint(dm, x, y)
			if !ok {
				out[i] = InvalidCameraSpacePoint()
				continue
			}
			out[i] = NewCameraSpacePoint(pt)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot map depth frame to camera space")
	}
	return out, nil
}

// MapDepthFrameToColorSpace projects every depth pixel into the color image.
func (pm *PinholeMapper) MapDepthFrameToColorSpace(dm *rimage.DepthMap) ([]ColorSpacePoint, error) {
	if err := pm.checkDepth(dm); err != nil {
		return nil, err
	}
	toColor := pm.DepthToColor.transformer()
	out := make([]ColorSpacePoint, dm.Width()*dm.Height())
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			i := y*dm.Width() + x
			out[i] = InvalidSpacePoint()
			pt, ok := pm.depthPixelToPoint(dm, x, y)
			if !ok {
				continue
			}
			cx, cy, ok := project(pm.Color, pm.ColorDistortion, toColor(pt))
			if !ok {
				continue
			}
			out[i] = ColorSpacePoint{float32(cx), float32(cy)}
		}
	}
	return out, nil
}

// MapColorFrameToDepthSpace finds, for every color pixel, the depth pixel that projects
// onto it. When several do, the nearest to the camera wins; color pixels no depth pixel
// lands on keep the sentinel.
func (pm *PinholeMapper) MapColorFrameToDepthSpace(dm *rimage.DepthMap) ([]DepthSpacePoint, error) {
	if err := pm.checkDepth(dm); err != nil {
		return nil, err
	}
	colorGrid := pm.Color.Grid()
	toColor := pm.DepthToColor.transformer()
	out := make([]DepthSpacePoint, colorGrid.Area())
	nearest := make([]float64, colorGrid.Area())
	for i := range out {
		out[i] = InvalidSpacePoint()
	}
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			pt, ok := pm.depthPixelToPoint(dm, x, y)
			if !ok {
				continue
			}
			inColor := toColor(pt)
			cx, cy, ok := project(pm.Color, pm.ColorDistortion, inColor)
			if !ok {
				continue
			}
			c := ColorSpacePoint{float32(cx), float32(cy)}.Round()
			if !colorGrid.In(c) {
				continue
			}
			k := colorGrid.Index(c.X, c.Y)
			if out[k].Valid() && nearest[k] <= inColor.Z {
				continue
			}
			out[k] = DepthSpacePoint{float32(x), float32(y)}
			nearest[k] = inColor.Z
		}
	}
	return out, nil
}

// MapCameraPointToDepthSpace projects p into the depth image.
func (pm *PinholeMapper) MapCameraPointToDepthSpace(p CameraSpacePoint) (DepthSpacePoint, error) {
	if !p.Valid() {
		return InvalidSpacePoint(), nil
	}
	x, y, ok := project(pm.Depth, pm.DepthDistortion, p.Vector())
	if !ok {
		return InvalidSpacePoint(), nil
	}
	return DepthSpacePoint{float32(x), float32(y)}, nil
}
