package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load populates an AppConfig from an optional YAML file and the environment.
// Precedence, lowest to highest: struct `default` tags, YAML file, environment.
// Fields tagged `required:"true"` must end up non-zero.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from operator flags
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvAndDefaults(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvAndDefaults(val reflect.Value) error {
	t := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		ft := t.Field(i)

		if field.Kind() == reflect.Struct && field.Type() != durationType {
			if err := applyEnvAndDefaults(field); err != nil {
				return err
			}
			continue
		}

		if env := ft.Tag.Get("env"); env != "" {
			if v := os.Getenv(env); v != "" {
				if err := setField(field, v); err != nil {
					return fmt.Errorf("%s: %w", env, err)
				}
				continue
			}
		}

		if def := ft.Tag.Get("default"); def != "" && field.IsZero() {
			if err := setField(field, def); err != nil {
				return fmt.Errorf("default for %s.%s: %w", t.Name(), ft.Name, err)
			}
		}

		if ft.Tag.Get("required") == "true" && field.IsZero() {
			env := ft.Tag.Get("env")
			return fmt.Errorf("required configuration %s (%s) is not set", ft.Name, env)
		}
	}
	return nil
}

func setField(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", raw, err)
		}
		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid float %q: %w", raw, err)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", raw, err)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		parts := strings.Split(raw, ",")
		slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
		for i, p := range parts {
			slice.Index(i).SetString(strings.TrimSpace(p))
		}
		field.Set(slice)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
