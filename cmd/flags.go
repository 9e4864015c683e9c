package cmd

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/KnowOneActual/image-processor/internal/config"
	"github.com/KnowOneActual/image-processor/internal/format"
	"github.com/KnowOneActual/image-processor/internal/geometry"
	"github.com/KnowOneActual/image-processor/internal/logging"
)

// flagKeys maps CLI flags to their configuration keys.
var flagKeys = map[string]string{
	"config":      "config",
	"workers":     "workers",
	"report":      "report",
	"crop":        "transform.crop_ratio",
	"width":       "transform.target_width",
	"format":      "transform.output_format",
	"watermark":   "transform.watermark_text",
	"quality":     "transform.quality",
	"font":        "transform.font_path",
	"font-size":   "transform.font_size",
	"opacity":     "transform.opacity",
	"auto-orient": "transform.auto_orient",
	"log-level":   "log.level",
	"log-file":    "log.file",
}

func addTransformFlags(fs *pflag.FlagSet) {
	defaults := config.Default()
	t := defaults.Transform

	fs.String("config", "", "YAML/JSON/TOML settings file")
	fs.Int("workers", defaults.Workers, "number of files processed at once")
	fs.String("report", "", "write a YAML run report to this path")
	fs.String("crop", "", `center-crop to an aspect ratio, e.g. "16:9" or "1:1"`)
	fs.Int("width", 0, "resize to this width in pixels, keeping the aspect ratio")
	fs.String("format", "", "convert to jpeg, png, webp, gif, bmp or tiff")
	fs.String("watermark", "", "text drawn in the bottom-right corner")
	fs.Int("quality", t.Quality, "JPEG/WEBP quality (1-100)")
	fs.String("font", "", "TrueType/OpenType font for the watermark")
	fs.Float64("font-size", t.FontSize, "watermark font size in points")
	fs.Int("opacity", t.Opacity, "watermark opacity (0-255)")
	fs.Bool("auto-orient", false, "rotate images upright using their EXIF orientation")
	fs.String("log-level", defaults.Log.Level, "debug, info, warn or error")
	fs.String("log-file", "", "also write JSON logs to this rotated file")
	fs.Bool("plain", false, "print log lines instead of the progress view")
}

func loadConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	v := config.NewViper()
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return config.Config{}, err
			}
		}
	}
	if len(args) > 0 {
		v.Set("input", args[0])
	}
	if len(args) > 1 {
		v.Set("output", args[1])
	}
	return config.Load(v)
}

// newLogger keeps the console quiet while the progress view owns the terminal.
func newLogger(cfg config.Config, quiet bool) (*zap.Logger, error) {
	var console io.Writer = os.Stderr
	if quiet {
		console = io.Discard
	}
	return logging.New(logging.Config{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: console,
	})
}

func interactive(cmd *cobra.Command) bool {
	plain, _ := cmd.Flags().GetBool("plain")
	if plain {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func warnCropRatio(logger *zap.Logger, cfg config.Config) {
	if !cfg.Transform.Crop() {
		return
	}
	if _, err := geometry.ParseRatio(cfg.Transform.CropRatio); err != nil {
		logger.Warn("crop ratio is invalid, images will not be cropped", zap.String("crop_ratio", cfg.Transform.CropRatio))
	}
}

func warnOutputFormat(logger *zap.Logger, cfg config.Config) {
	if !cfg.Transform.Convert() {
		return
	}
	if _, err := format.Parse(cfg.Transform.OutputFormat); err != nil {
		logger.Warn("output format is not supported, every file will fail", zap.String("output_format", cfg.Transform.OutputFormat))
		return
	}
	logger.Info("converting output", zap.String("format", cfg.Transform.OutputFormat))
}
