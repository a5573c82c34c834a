package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
)

// File formats understood by [Parse].
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// validate is a singleton validator instance.
var validate = validator.New()

// Load reads a config file, picking the decoder from the file extension.
// Settings absent from the file keep their [Default] values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return Config{}, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return cfg, nil
}

// FormatOf maps a file extension to a config format.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported config extension %q (want .toml, .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// Parse decodes data in the given format on top of [Default] and validates
// the result.
func Parse(data []byte, format string) (Config, error) {
	cfg := Default()
	if err := decodeInto(&cfg, data, format); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Overlay decodes data on top of an existing config, so partial documents
// (for example an API patch) only change what they mention.
func Overlay(base Config, data []byte, format string) (Config, error) {
	cfg := base
	if err := decodeInto(&cfg, data, format); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeInto(cfg *Config, data []byte, format string) error {
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "decode toml")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "decode yaml")
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "decode json")
		}
	default:
		return ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported config format %q", format)
	}
	return nil
}

// Marshal encodes cfg in the given format.
func Marshal(cfg Config, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
	default:
		return nil, ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported config format %q", format)
	}
	return buf.Bytes(), nil
}

// Validate checks every field constraint and reports the first violation.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "validate config")
	}

	for _, e := range validationErrs {
		field := fieldPath(e.Namespace())
		param := e.Param()

		switch e.Tag() {
		case "gt":
			return ferrors.New(ferrors.ErrCodeInvalidConfig, "%s: must be greater than %s", field, param)
		case "gte", "min":
			return ferrors.New(ferrors.ErrCodeInvalidConfig, "%s: must be at least %s", field, param)
		case "lt":
			return ferrors.New(ferrors.ErrCodeInvalidConfig, "%s: must be less than %s", field, param)
		case "lte", "max":
			return ferrors.New(ferrors.ErrCodeInvalidConfig, "%s: must not exceed %s", field, param)
		case "gtfield":
			return ferrors.New(ferrors.ErrCodeInvalidConfig, "%s: must be greater than %s", field, param)
		default:
			return ferrors.New(ferrors.ErrCodeInvalidConfig, "%s: validation failed (%s)", field, e.Tag())
		}
	}
	return nil
}

// fieldPath strips the root type from a validator namespace:
// "Config.Forces.Charge.DistanceMax" -> "Forces.Charge.DistanceMax".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
