// Package config loads and validates the settings for a batch run.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// TransformConfig selects which stages run for every file. Zero values turn a
// stage off. It is validated once and then only read.
type TransformConfig struct {
	CropRatio     string  `mapstructure:"crop_ratio" yaml:"crop_ratio,omitempty"`
	TargetWidth   int     `mapstructure:"target_width" yaml:"target_width,omitempty" validate:"gte=0"`
	WatermarkText string  `mapstructure:"watermark_text" yaml:"watermark_text,omitempty"`
	OutputFormat  string  `mapstructure:"output_format" yaml:"output_format,omitempty"`
	Quality       int     `mapstructure:"quality" yaml:"quality" default:"95" validate:"min=1,max=100"`
	FontPath      string  `mapstructure:"font_path" yaml:"font_path,omitempty"`
	FontSize      float64 `mapstructure:"font_size" yaml:"font_size" default:"36" validate:"gt=0"`
	Opacity       int     `mapstructure:"opacity" yaml:"opacity" default:"128" validate:"min=0,max=255"`
	AutoOrient    bool    `mapstructure:"auto_orient" yaml:"auto_orient,omitempty"`
}

// Crop reports whether a crop ratio was requested.
func (t TransformConfig) Crop() bool { return strings.TrimSpace(t.CropRatio) != "" }

func (t TransformConfig) Resize() bool { return t.TargetWidth > 0 }

func (t TransformConfig) Watermark() bool { return t.WatermarkText != "" }

func (t TransformConfig) Convert() bool { return strings.TrimSpace(t.OutputFormat) != "" }

type LogConfig struct {
	Level string `mapstructure:"level" default:"info" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file"`
}

// Config is everything a run needs besides the event consumer.
type Config struct {
	Input     string          `mapstructure:"input" validate:"required"`
	Output    string          `mapstructure:"output" validate:"required"`
	Workers   int             `mapstructure:"workers" default:"1" validate:"min=1,max=64"`
	Report    string          `mapstructure:"report"`
	Transform TransformConfig `mapstructure:"transform"`
	Log       LogConfig       `mapstructure:"log"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultTransform returns a TransformConfig with only the defaults set.
func DefaultTransform() TransformConfig {
	var t TransformConfig
	_ = defaults.Set(&t)
	return t
}

// Default returns a Config populated from the struct defaults.
func Default() Config {
	var c Config
	_ = defaults.Set(&c)
	return c
}

func (t TransformConfig) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, describe(err))
	}
	return nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, describe(err))
	}
	if strings.TrimSpace(c.Input) == "" || strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("%w: input and output folders must be selected", ErrInvalidConfig)
	}
	return nil
}

// Load reads settings from v (flags, env and an optional file already bound
// by the caller) over the struct defaults, then validates the result.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if v == nil {
		return cfg, cfg.Validate()
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// NewViper returns a viper instance reading IMGPROC_* environment variables,
// with nested keys joined by underscores (IMGPROC_TRANSFORM_QUALITY).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("imgproc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Namespace())
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
