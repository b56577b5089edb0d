// Package config reads JSON configuration files and converts their attribute maps into typed
// configuration structs.
package config

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// AttributeMap is a loosely typed JSON object as read from a config file.
type AttributeMap map[string]interface{}

// Has reports whether name is set, even to null.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// A Validator validates a configuration. path names the configuration in errors.
type Validator interface {
	Validate(path string) error
}

// TransformAttributeMap uses an attribute map to transform attributes to the prescribed format.
// Keys that match no field are kept in an `Attributes AttributeMap` field when T has one and
// are an error otherwise.
func TransformAttributeMap[T any](attributes AttributeMap) (T, error) {
	var out T

	var forResult interface{}

	toT := reflect.TypeOf(out)
	if toT == nil {
		// nothing to transform
		return out, nil
	}
	if toT.Kind() == reflect.Ptr {
		// needs to be allocated then
		var ok bool
		out, ok = reflect.New(toT.Elem()).Interface().(T)
		if !ok {
			return out, errors.Errorf("failed to allocate default config type %T", out)
		}
		forResult = out
	} else {
		forResult = &out
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   forResult,
		Metadata: &md,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return out, err
	}
	if len(md.Unused) == 0 {
		return out, nil
	}

	toV := reflect.ValueOf(out)
	if toV.Kind() == reflect.Ptr {
		toV = toV.Elem()
	}
	attrsV := toV.FieldByName("Attributes")
	if !attrsV.IsValid() || attrsV.Kind() != reflect.Map || attrsV.Type().Key().Kind() != reflect.String {
		unused := append([]string(nil), md.Unused...)
		sort.Strings(unused)
		return out, errors.Errorf("unknown attributes: %s", strings.Join(unused, ", "))
	}
	if attrsV.IsNil() {
		attrsV.Set(reflect.MakeMap(attrsV.Type()))
	}
	mapValueType := attrsV.Type().Elem()
	for _, key := range md.Unused {
		// nested unused keys are reported as parent.child and have no top level value
		if !attributes.Has(key) || attributes[key] == nil {
			continue
		}
		valV := reflect.ValueOf(attributes[key])
		if valV.Type().AssignableTo(mapValueType) {
			attrsV.SetMapIndex(reflect.ValueOf(key), valV)
		}
	}
	return out, nil
}
