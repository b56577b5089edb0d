package rgbd

import (
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/rgbd/config"
	"go.viam.com/rgbd/logging"
	"go.viam.com/rgbd/rimage"
	"go.viam.com/rgbd/rimage/transform"
)

// Config describes a session: the native sensor grids, the resolutions callers work in and
// the optional output and visualization settings.
type Config struct {
	DepthGrid transform.Grid `json:"depth_grid"`
	ColorGrid transform.Grid `json:"color_grid"`

	// DepthResolution and ColorResolution are the sizes pixel queries are expressed in.
	// They default to the native grids.
	DepthResolution *transform.Grid `json:"depth_resolution,omitempty"`
	ColorResolution *transform.Grid `json:"color_resolution,omitempty"`

	// AlignedOutput, when set, resizes every aligned raster to this size.
	AlignedOutput       *transform.Grid         `json:"aligned_output,omitempty"`
	ResizeInterpolation transform.Interpolation `json:"resize_interpolation,omitempty"`

	Visualizer VisualizerConfig `json:"visualizer"`

	// Calibration is used when no CoordinateMapper is given to NewSession. Homography is
	// the alternative for rigs calibrated with a plane; at most one may be set.
	Calibration *transform.PinholeMapper    `json:"calibration,omitempty"`
	Homography  *transform.HomographyMapper `json:"homography,omitempty"`
}

// VisualizerConfig overrides the depth visualization. Zero values fall back to the frame's
// reliable range and the JET palette.
type VisualizerConfig struct {
	MinReliableMM rimage.Depth `json:"min_reliable_mm,omitempty"`
	MaxReliableMM rimage.Depth `json:"max_reliable_mm,omitempty"`
	Palette       string       `json:"palette,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.DepthGrid.Empty() {
		return utils.NewConfigValidationFieldRequiredError(path, "depth_grid")
	}
	if conf.ColorGrid.Empty() {
		return utils.NewConfigValidationFieldRequiredError(path, "color_grid")
	}
	for _, size := range []struct {
		name string
		grid *transform.Grid
	}{
		{"depth_resolution", conf.DepthResolution},
		{"color_resolution", conf.ColorResolution},
		{"aligned_output", conf.AlignedOutput},
	} {
		if size.grid != nil && size.grid.Empty() {
			return utils.NewConfigValidationError(path, errors.Errorf("%s must be positive, got %dx%d",
				size.name, size.grid.Width, size.grid.Height))
		}
	}
	if _, err := conf.ResizeInterpolation.Interpolator(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if _, ok := rimage.PaletteNamed(conf.Visualizer.Palette); !ok {
		return utils.NewConfigValidationError(path, errors.Errorf("unknown palette %q", conf.Visualizer.Palette))
	}
	vis := conf.Visualizer
	if vis.MaxReliableMM != 0 && vis.MaxReliableMM <= vis.MinReliableMM {
		return utils.NewConfigValidationError(path, errors.Errorf(
			"visualizer range is inverted: min_reliable_mm %d, max_reliable_mm %d", vis.MinReliableMM, vis.MaxReliableMM))
	}
	if conf.Calibration != nil {
		if err := conf.Calibration.CheckValid(); err != nil {
			return utils.NewConfigValidationError(path, errors.Wrap(err, "calibration"))
		}
		if conf.Calibration.Depth.Grid() != conf.DepthGrid {
			return utils.NewConfigValidationError(path, errors.New("calibration depth intrinsics do not match depth_grid"))
		}
		if conf.Calibration.Color.Grid() != conf.ColorGrid {
			return utils.NewConfigValidationError(path, errors.New("calibration color intrinsics do not match color_grid"))
		}
	}
	if conf.Homography != nil {
		if conf.Calibration != nil {
			return utils.NewConfigValidationError(path, errors.New("only one of calibration and homography may be set"))
		}
		if err := conf.Homography.CheckValid(); err != nil {
			return utils.NewConfigValidationError(path, errors.Wrap(err, "homography"))
		}
		if conf.Homography.Depth.Grid() != conf.DepthGrid || conf.Homography.ColorGrid != conf.ColorGrid {
			return utils.NewConfigValidationError(path, errors.New("homography grids do not match depth_grid and color_grid"))
		}
	}
	return nil
}

// mapper returns the configured CoordinateMapper, or nil when none is configured.
func (conf *Config) mapper() transform.CoordinateMapper {
	switch {
	case conf.Calibration != nil:
		return conf.Calibration
	case conf.Homography != nil:
		return conf.Homography
	default:
		return nil
	}
}

// depthResolution is the configured depth resolution, defaulting to the native grid.
func (conf *Config) depthResolution() transform.Grid {
	if conf.DepthResolution == nil {
		return conf.DepthGrid
	}
	return *conf.DepthResolution
}

// colorResolution is the configured color resolution, defaulting to the native grid.
func (conf *Config) colorResolution() transform.Grid {
	if conf.ColorResolution == nil {
		return conf.ColorGrid
	}
	return *conf.ColorResolution
}

// ReadConfig reads and validates a session config file. Environment variables in the file
// are expanded.
func ReadConfig(path string, logger logging.Logger) (*Config, error) {
	return config.ReadTyped[*Config](path, logger)
}

// ConfigFromAttributes converts and validates an already parsed config.
func ConfigFromAttributes(attrs config.AttributeMap) (*Config, error) {
	conf, err := config.TransformAttributeMap[*Config](attrs)
	if err != nil {
		return nil, err
	}
	if err := conf.Validate("rgbd"); err != nil {
		return nil, err
	}
	return conf, nil
}
