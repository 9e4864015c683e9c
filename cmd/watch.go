package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KnowOneActual/image-processor/internal/pipeline"
	"github.com/KnowOneActual/image-processor/internal/processor"
	"github.com/KnowOneActual/image-processor/internal/tui"
	"github.com/KnowOneActual/image-processor/internal/watcher"
)

var watchInitial bool

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <input-dir> <output-dir>",
	Short: "Transform images as they are added to a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}

		// Watch mode always prints plain lines; it has no end to show progress for.
		logger, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		warnCropRatio(logger, cfg)
		warnOutputFormat(logger, cfg)

		p := pipeline.New(cfg.Transform)
		w, err := watcher.New(cfg.Input, cfg.Output, p, watcher.WithLogger(logger))
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		out := cmd.OutOrStdout()
		events := make(chan processor.Event, 64)
		printed := make(chan struct{})
		go func() {
			defer close(printed)
			for ev := range events {
				fmt.Fprintln(out, tui.RenderEvent(ev))
			}
		}()

		if watchInitial {
			report, err := processor.Run(ctx, processor.Options{
				Input:    cfg.Input,
				Output:   cfg.Output,
				Workers:  cfg.Workers,
				Logger:   logger,
				Pipeline: p,
			}, events)
			if err != nil {
				close(events)
				<-printed
				return err
			}
			logger.Info("initial pass finished", zap.Int("processed", report.Processed), zap.Int("failed", report.Failed))
		}

		err = w.Run(ctx, events)
		close(events)
		<-printed
		return err
	},
}

func init() {
	addTransformFlags(watchCmd.Flags())
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "process files already in the folder before watching")
	rootCmd.AddCommand(watchCmd)
}
