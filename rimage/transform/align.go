package transform

import (
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/utils"
)

// Remap resamples src, laid out on srcGrid with channels values per pixel, onto the grid of
// table. For every target pixel i the entry table[i] is a coordinate in srcGrid; when it is
// the sentinel or rounds to a pixel outside srcGrid, every channel of i becomes noData,
// otherwise the nearest source pixel is copied. Neither src nor table is modified.
func Remap[T any](dst, src []T, channels int, srcGrid Grid, table *Table[SpacePoint], noData T) error {
	if table == nil {
		return errors.New("no correspondence table")
	}
	if channels <= 0 {
		return errors.Errorf("invalid channel count %d", channels)
	}
	if len(src) != srcGrid.Area()*channels {
		return errors.Errorf("source of %dx%dx%d needs %d values, got %d",
			srcGrid.Width, srcGrid.Height, channels, srcGrid.Area()*channels, len(src))
	}
	if len(dst) != table.Len()*channels {
		return errors.Errorf("target of %d pixels x %d channels needs %d values, got %d",
			table.Len(), channels, table.Len()*channels, len(dst))
	}

	dstGrid := table.Grid()
	return utils.ParallelForEachRow(dstGrid.Height, func(y int) {
		for i := y * dstGrid.Width; i < (y+1)*dstGrid.Width; i++ {
			out := dst[i*channels : (i+1)*channels]
			p := table.At(i)
			if !p.Valid() {
				fill(out, noData)
				continue
			}
			px := p.Round()
			if !srcGrid.In(px) {
				fill(out, noData)
				continue
			}
			k := srcGrid.Index(px.X, px.Y) * channels
			copy(out, src[k:k+channels])
		}
	})
}

func fill[T any](vals []T, v T) {
	for i := range vals {
		vals[i] = v
	}
}

// AlignColorToDepth resamples a color image into the depth grid using the depth-to-color
// table. Pixels without a correspondence are black with zero alpha.
func AlignColorToDepth(img *image.RGBA, depthToColor *Table[ColorSpacePoint]) (*image.RGBA, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	if depthToColor == nil {
		return nil, errors.New("no depth to color table")
	}
	src := packRGBA(img)
	out := image.NewRGBA(depthToColor.Grid().Bounds())
	if err := Remap(out.Pix, src.Pix, 4, GridOf(src.Bounds()), depthToColor, uint8(0)); err != nil {
		return nil, errors.Wrap(err, "cannot align color to depth")
	}
	return out, nil
}

// AlignIntensityToDepth resamples a single-channel image laid out on the color grid into
// the depth grid. Pixels without a correspondence are zero.
func AlignIntensityToDepth(img *image.Gray, depthToColor *Table[ColorSpacePoint]) (*image.Gray, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	if depthToColor == nil {
		return nil, errors.New("no depth to color table")
	}
	src := packGray(img)
	out := image.NewGray(depthToColor.Grid().Bounds())
	if err := Remap(out.Pix, src.Pix, 1, GridOf(src.Bounds()), depthToColor, uint8(0)); err != nil {
		return nil, errors.Wrap(err, "cannot align intensity to depth")
	}
	return out, nil
}

// AlignDepthToColor resamples a depth map into the color grid using the color-to-depth
// table. Pixels without a correspondence are rimage.MaxDepth.
func AlignDepthToColor(dm *rimage.DepthMap, colorToDepth *Table[DepthSpacePoint]) (*rimage.DepthMap, error) {
	if dm == nil {
		return nil, errors.New("input DepthMap is nil")
	}
	if colorToDepth == nil {
		return nil, errors.New("no color to depth table")
	}
	grid := colorToDepth.Grid()
	out := rimage.NewEmptyDepthMap(grid.Width, grid.Height)
	if err := Remap(out.Data(), dm.Data(), 1, GridOf(dm.Bounds()), colorToDepth, rimage.MaxDepth); err != nil {
		return nil, errors.Wrap(err, "cannot align depth to color")
	}
	out.SetReliableRange(dm.ReliableRange())
	return out, nil
}

// packRGBA returns img if its pixels are contiguous from the origin, otherwise a packed copy.
func packRGBA(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	if b.Min == (image.Point{}) && img.Stride == 4*b.Dx() {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func packGray(img *image.Gray) *image.Gray {
	b := img.Bounds()
	if b.Min == (image.Point{}) && img.Stride == b.Dx() {
		return img
	}
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
