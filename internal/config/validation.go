package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/quant-edge/internal/odds"
)

// MinIterations is the smallest simulation size accepted.
const MinIterations = 10000

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// enumTags are custom tags whose valid values are a fixed list.
var enumTags = map[string][]string{
	"environment": {"development", "staging", "production"},
	"loglevel":    {"debug", "info", "warn", "error"},
	"vigmethod":   {string(odds.VigNone), string(odds.VigMultiplicative)},
	"sourcekind":  {"file", "http"},
}

// NewValidator creates a validator that reports fields by their config keys.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	for tag, allowed := range enumTags {
		_ = v.RegisterValidation(tag, oneOf(allowed))
	}
	_ = v.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
		_, err := time.LoadLocation(fl.Field().String())
		return err == nil
	})

	return &CustomValidator{validator: v}
}

func oneOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, a := range allowed {
			if s == a {
				return true
			}
		}
		return false
	}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate checks struct tags first, then rules spanning several fields.
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return describe(fieldErrs)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return validateCrossField(cfg)
}

// validateCrossField enforces rules that depend on more than one field.
func validateCrossField(cfg *Config) error {
	if n := cfg.Simulation.Iterations; n != 0 && n < MinIterations {
		return fmt.Errorf("simulation.iterations must be at least %d, got %d", MinIterations, n)
	}

	if cfg.Source.Kind == "file" && cfg.Source.Path == "" {
		return errors.New("source.path is required for a file source")
	}
	if cfg.Source.Kind == "http" && cfg.Source.URL == "" {
		return errors.New("source.url is required for an http source")
	}

	if !cfg.Database.Enabled {
		return nil
	}
	db := cfg.Database
	switch {
	case db.Host == "" || db.Name == "" || db.User == "":
		return errors.New("database host, name and user are required when the database is enabled")
	case cfg.IsProduction() && db.SSLMode == "disable":
		return errors.New("production environment requires SSL mode to be 'require' or 'verify-full'")
	case db.MaxConnections > 0 && db.MinConnections > db.MaxConnections:
		return errors.New("database.min_connections cannot exceed database.max_connections")
	}
	return nil
}

// describe renders one line per failed field, keyed by its dotted config path.
func describe(fieldErrs validator.ValidationErrors) error {
	var b strings.Builder
	for _, fe := range fieldErrs {
		key := fe.Namespace()
		if _, rest, ok := strings.Cut(key, "."); ok {
			key = rest
		}

		fmt.Fprintf(&b, "- %s: ", key)
		switch tag := fe.Tag(); {
		case enumTags[tag] != nil:
			fmt.Fprintf(&b, "must be one of: %s", strings.Join(enumTags[tag], ", "))
		case tag == "timezone":
			fmt.Fprintf(&b, "must be an IANA timezone, got %q", fe.Value())
		case tag == "required":
			b.WriteString("is required")
		case tag == "url":
			fmt.Fprintf(&b, "must be a valid URL, got %q", fe.Value())
		case tag == "oneof":
			fmt.Fprintf(&b, "must be one of [%s], got %v", fe.Param(), fe.Value())
		case fe.Param() != "":
			fmt.Fprintf(&b, "failed %s=%s, got %v", tag, fe.Param(), fe.Value())
		default:
			fmt.Fprintf(&b, "failed %s", tag)
		}
		b.WriteByte('\n')
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
