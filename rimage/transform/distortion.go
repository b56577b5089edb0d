package transform

import "github.com/pkg/errors"

// BrownConrady is the radial and tangential lens distortion of a pinhole camera, applied to
// normalized image coordinates (x/z, y/z). A nil *BrownConrady is a distortion-free lens.
type BrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	RadialK3     float64 `json:"rk3"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
}

// NewBrownConrady takes the parameters in the order k1, k2, k3, p1, p2. Missing trailing
// parameters are zero.
func NewBrownConrady(params []float64) (*BrownConrady, error) {
	if len(params) > 5 {
		return nil, errors.Errorf("list of parameters too long, expected max 5, got %d", len(params))
	}
	var p [5]float64
	copy(p[:], params)
	return &BrownConrady{p[0], p[1], p[2], p[3], p[4]}, nil
}

// Parameters returns k1, k2, k3, p1, p2.
func (bc *BrownConrady) Parameters() []float64 {
	if bc == nil {
		return []float64{}
	}
	return []float64{bc.RadialK1, bc.RadialK2, bc.RadialK3, bc.TangentialP1, bc.TangentialP2}
}

// Distort maps an ideal normalized coordinate to where the lens images it.
func (bc *BrownConrady) Distort(x, y float64) (float64, float64) {
	if bc == nil {
		return x, y
	}
	r2 := x*x + y*y
	radial := 1 + r2*(bc.RadialK1+r2*(bc.RadialK2+r2*bc.RadialK3))
	xd := x*radial + 2*bc.TangentialP1*x*y + bc.TangentialP2*(r2+2*x*x)
	yd := y*radial + 2*bc.TangentialP2*x*y + bc.TangentialP1*(r2+2*y*y)
	return xd, yd
}

const (
	undistortIterations = 20
	undistortTolerance  = 1e-10
)

// Undistort inverts Distort with Newton's method, starting from the distorted coordinate.
func (bc *BrownConrady) Undistort(xd, yd float64) (float64, float64) {
	if bc == nil {
		return xd, yd
	}
	x, y := xd, yd
	for i := 0; i < undistortIterations; i++ {
		ex, ey := bc.Distort(x, y)
		ex -= xd
		ey -= yd
		if ex*ex+ey*ey < undistortTolerance*undistortTolerance {
			break
		}

		r2 := x*x + y*y
		radial := 1 + r2*(bc.RadialK1+r2*(bc.RadialK2+r2*bc.RadialK3))
		dRadial := 2 * (bc.RadialK1 + r2*(2*bc.RadialK2+3*bc.RadialK3*r2))
		jxx := radial + x*x*dRadial + 2*bc.TangentialP1*y + 6*bc.TangentialP2*x
		jxy := x*y*dRadial + 2*bc.TangentialP1*x + 2*bc.TangentialP2*y
		jyx := x*y*dRadial + 2*bc.TangentialP2*y + 2*bc.TangentialP1*x
		jyy := radial + y*y*dRadial + 2*bc.TangentialP2*x + 6*bc.TangentialP1*y

		det := jxx*jyy - jxy*jyx
		if det == 0 {
			break
		}
		x -= (jyy*ex - jxy*ey) / det
		y -= (jxx*ey - jyx*ex) / det
	}
	return x, y
}
