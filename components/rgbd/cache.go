package rgbd

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/rgbd/logging"
	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
)

// CorrespondenceCache holds the per-pixel tables computed from the most recent frame pair.
// The three tables always come from the same depth frame. After a failed refresh the old
// tables are kept but the cache stops serving them until a refresh succeeds.
type CorrespondenceCache struct {
	mapper transform.CoordinateMapper
	logger logging.Logger

	depthToColor  *transform.Table[transform.ColorSpacePoint]
	colorToDepth  *transform.Table[transform.DepthSpacePoint]
	depthToCamera *transform.Table[transform.CameraSpacePoint]
	current       bool
}

// NewCorrespondenceCache returns an empty, not current, cache.
func NewCorrespondenceCache(mapper transform.CoordinateMapper, logger logging.Logger) *CorrespondenceCache {
	return &CorrespondenceCache{mapper: mapper, logger: logger}
}

func mappingError(op string, err error) error {
	return multierr.Combine(ErrMappingUnavailable, errors.Wrap(err, op))
}

// Refresh recomputes all three tables from depth. colorGrid is the native color grid the
// color-to-depth table must cover. The tables are replaced only if every mapping succeeds.
func (c *CorrespondenceCache) Refresh(depth *rimage.DepthMap, colorGrid transform.Grid) error {
	if c.mapper == nil {
		c.current = false
		return errors.Wrap(ErrMappingUnavailable, "no coordinate mapper")
	}
	if depth == nil {
		c.current = false
		return errors.Wrap(ErrMappingUnavailable, "no depth frame")
	}
	depthGrid := transform.GridOf(depth.Bounds())

	depthToColor, err := buildTable(depthGrid, "MapDepthFrameToColorSpace", c.mapper.MapDepthFrameToColorSpace, depth)
	if err != nil {
		return c.fail(err)
	}
	colorToDepth, err := buildTable(colorGrid, "MapColorFrameToDepthSpace", c.mapper.MapColorFrameToDepthSpace, depth)
	if err != nil {
		return c.fail(err)
	}
	depthToCamera, err := buildTable(depthGrid, "MapDepthFrameToCameraSpace", c.mapper.MapDepthFrameToCameraSpace, depth)
	if err != nil {
		return c.fail(err)
	}

	c.depthToColor, c.colorToDepth, c.depthToCamera = depthToColor, colorToDepth, depthToCamera
	c.current = true
	return nil
}

func buildTable[P any](
	grid transform.Grid,
	op string,
	mapFn func(*rimage.DepthMap) ([]P, error),
	depth *rimage.DepthMap,
) (*transform.Table[P], error) {
	points, err := mapFn(depth)
	if err != nil {
		return nil, mappingError(op, err)
	}
	table, err := transform.NewTable(grid, points)
	if err != nil {
		return nil, mappingError(op, err)
	}
	return table, nil
}

func (c *CorrespondenceCache) fail(err error) error {
	if c.current {
		c.logger.Debugw("correspondence tables are stale", "error", err)
	}
	c.current = false
	return err
}

// Invalidate stops the cache from serving its tables until the next successful Refresh.
func (c *CorrespondenceCache) Invalidate() {
	c.current = false
}

// Current reports whether the tables belong to the latest frame pair.
func (c *CorrespondenceCache) Current() bool {
	return c.current
}

// Mapper returns the coordinate mapper the tables are computed with.
func (c *CorrespondenceCache) Mapper() transform.CoordinateMapper {
	return c.mapper
}

// DepthToColor returns the depth-grid table of color coordinates.
func (c *CorrespondenceCache) DepthToColor() (*transform.Table[transform.ColorSpacePoint], error) {
	if !c.current {
		return nil, ErrMappingUnavailable
	}
	return c.depthToColor, nil
}

// ColorToDepth returns the color-grid table of depth coordinates.
func (c *CorrespondenceCache) ColorToDepth() (*transform.Table[transform.DepthSpacePoint], error) {
	if !c.current {
		return nil, ErrMappingUnavailable
	}
	return c.colorToDepth, nil
}

// DepthToCamera returns the depth-grid table of camera space points.
func (c *CorrespondenceCache) DepthToCamera() (*transform.Table[transform.CameraSpacePoint], error) {
	if !c.current {
		return nil, ErrMappingUnavailable
	}
	return c.depthToCamera, nil
}
