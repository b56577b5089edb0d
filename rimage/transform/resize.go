package transform

import (
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"go.viam.com/rgbd/rimage"
)

// Interpolation names the kernel of the optional resize step after alignment.
type Interpolation string

// The supported kernels.
const (
	NearestNeighbor Interpolation = "nearest"
	BiLinear        Interpolation = "bilinear"
	CatmullRom      Interpolation = "catmullrom"
)

// Interpolator returns the x/image/draw scaler for the kernel; "" selects BiLinear.
func (interp Interpolation) Interpolator() (draw.Interpolator, error) {
	switch interp {
	case NearestNeighbor:
		return draw.NearestNeighbor, nil
	case BiLinear, "":
		return draw.BiLinear, nil
	case CatmullRom:
		return draw.CatmullRom, nil
	default:
		return nil, errors.Errorf("unknown interpolation %q", string(interp))
	}
}

func checkSize(size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return errors.Errorf("cannot resize to %dx%d", size.X, size.Y)
	}
	return nil
}

// ResizeRGBA scales img to size. img is returned untouched when it already has that size.
func ResizeRGBA(img *image.RGBA, size image.Point, interp Interpolation) (*image.RGBA, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	if img.Bounds().Size() == size {
		return img, nil
	}
	scaler, err := interp.Interpolator()
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// ResizeGray scales img to size. img is returned untouched when it already has that size.
func ResizeGray(img *image.Gray, size image.Point, interp Interpolation) (*image.Gray, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	if img.Bounds().Size() == size {
		return img, nil
	}
	scaler, err := interp.Interpolator()
	if err != nil {
		return nil, err
	}
	dst := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// ResizeDepth scales dm to size through a Gray16 copy. dm is returned untouched when it
// already has that size. interp is validated but depth is always sampled nearest-neighbor:
// blending across an edge or a no-data pixel would invent depths no surface has.
func ResizeDepth(dm *rimage.DepthMap, size image.Point, interp Interpolation) (*rimage.DepthMap, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	if _, err := interp.Interpolator(); err != nil {
		return nil, err
	}
	if dm.Bounds().Size() == size {
		return dm, nil
	}
	src := dm.ToGray16()
	dst := image.NewGray16(image.Rect(0, 0, size.X, size.Y))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	out, err := rimage.ConvertImageToDepthMap(dst)
	if err != nil {
		return nil, err
	}
	out.SetReliableRange(dm.ReliableRange())
	return out, nil
}
