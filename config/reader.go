package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"go.viam.com/rgbd/logging"
)

// Read reads an attribute map from the given file, expanding $VAR and ${VAR} references
// from the environment first.
func Read(filePath string, logger logging.Logger) (AttributeMap, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	logger.Debugw("read config", "path", filePath, "bytes", len(buf))
	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader reads an attribute map from r. originalPath is only used in errors.
func FromReader(originalPath string, r io.Reader) (AttributeMap, error) {
	var attrs AttributeMap
	dec := json.NewDecoder(r)
	if err := dec.Decode(&attrs); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", originalPath)
	}
	if attrs == nil {
		return nil, errors.Errorf("config %q is empty", originalPath)
	}
	return attrs, nil
}

// ReadTyped reads the file at filePath into T and validates it.
func ReadTyped[T Validator](filePath string, logger logging.Logger) (T, error) {
	var zero T
	attrs, err := Read(filePath, logger)
	if err != nil {
		return zero, err
	}
	conf, err := TransformAttributeMap[T](attrs)
	if err != nil {
		return zero, errors.Wrapf(err, "cannot convert config %q", filePath)
	}
	if err := conf.Validate(filePath); err != nil {
		return zero, err
	}
	return conf, nil
}
