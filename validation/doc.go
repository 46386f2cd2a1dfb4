// Package validation checks configuration and API input.
//
// Struct tags are checked with go-playground/validator, reporting fields by
// their json or mapstructure name. Besides the built-in tags, "duration"
// and "http_url" are registered:
//
//	type ServerConfig struct {
//	    URL     string `mapstructure:"url" validate:"omitempty,http_url"`
//	    Timeout string `mapstructure:"timeout" validate:"duration"`
//	}
//	err := validation.Validate(cfg)
//
// Cross-field rules use a Validator:
//
//	err := validation.New().
//	    ExactlyOne(map[string]string{"file": file, "url": url}).
//	    Err()
package validation
