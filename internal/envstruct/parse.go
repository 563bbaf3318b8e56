// Package envstruct fills configuration structs from environment variables.
package envstruct

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

var (
	ErrEnvNotSet    = errors.New("environment variable not set")
	ErrInvalidValue = errors.New("invalid value")
)

//nolint:gochecknoglobals // type descriptor.
var durationType = reflect.TypeFor[time.Duration]()

// Populate sets the fields of the struct pointed to by v from the environment.
//
// lookupEnv has the same signature as [os.LookupEnv]. Fields tagged with `env:"NAME"` are read from NAME and fall
// back to the `envDefault:"value"` tag. A field without either yields ErrEnvNotSet. Supported field types are
// string, bool, int, float64 and time.Duration. Untagged fields are left alone.
func Populate(v any, lookupEnv func(string) (string, bool)) error {
	ptr := reflect.ValueOf(v)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("%w: want pointer to struct, got %T", ErrInvalidValue, v)
	}
	s := ptr.Elem()
	if s.Kind() != reflect.Struct {
		return fmt.Errorf("%w: want pointer to struct, got %T", ErrInvalidValue, v)
	}

	var errs []error
	for i := range s.NumField() {
		field := s.Type().Field(i)
		name, ok := field.Tag.Lookup("env")
		if !ok {
			continue
		}
		value := s.Field(i)
		if !value.CanSet() {
			errs = append(errs, fmt.Errorf("%w: unexported field %s", ErrInvalidValue, field.Name))
			continue
		}
		raw, ok := lookupEnv(name)
		if !ok {
			if raw, ok = field.Tag.Lookup("envDefault"); !ok {
				errs = append(errs, fmt.Errorf("%w: %s", ErrEnvNotSet, name))
				continue
			}
		}
		if err := set(value, raw); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q: %w", ErrInvalidValue, name, raw, err))
		}
	}
	return errors.Join(errs...)
}

func set(value reflect.Value, raw string) error {
	if value.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse duration: %w", err)
		}
		value.SetInt(int64(d))
		return nil
	}
	switch value.Kind() { //nolint:exhaustive // everything else is unsupported.
	case reflect.String:
		value.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse bool: %w", err)
		}
		value.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse int: %w", err)
		}
		value.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parse float: %w", err)
		}
		value.SetFloat(f)
	default:
		return fmt.Errorf("unsupported type %s", value.Type())
	}
	return nil
}
