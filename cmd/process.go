package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KnowOneActual/image-processor/internal/pipeline"
	"github.com/KnowOneActual/image-processor/internal/processor"
	"github.com/KnowOneActual/image-processor/internal/tui"
)

var processCmd = &cobra.Command{
	Use:   "process [flags] <input-dir> <output-dir>",
	Short: "Transform every image in a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}

		useTUI := interactive(cmd)
		logger, err := newLogger(cfg, useTUI)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		warnCropRatio(logger, cfg)
		warnOutputFormat(logger, cfg)

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		events := make(chan processor.Event, 64)
		uiDone := renderEvents(events, cancel, useTUI, cmd.OutOrStdout())

		report, err := processor.Run(ctx, processor.Options{
			Input:     cfg.Input,
			Output:    cfg.Output,
			Transform: cfg.Transform,
			Workers:   cfg.Workers,
			Logger:    logger,
			Pipeline:  pipeline.New(cfg.Transform),
		}, events)

		close(events)
		<-uiDone
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tui.RenderSummary(tui.ReportRows(report)))
		if failures := tui.RenderFailures(report); failures != "" {
			fmt.Fprintln(out, failures)
		}

		outPath := cfg.Output
		if abs, absErr := filepath.Abs(cfg.Output); absErr == nil {
			outPath = abs
		}
		fmt.Fprintf(out, "Processed files written to: %s\n", outPath)

		if cfg.Report != "" {
			if err := report.SaveYAML(cfg.Report); err != nil {
				return err
			}
			logger.Info("report written", zap.String("path", cfg.Report))
			fmt.Fprintf(out, "Report written to: %s\n", cfg.Report)
		}

		return nil
	},
}

// renderEvents drains events either into the progress view or as plain
// lines. The returned channel closes once events is closed and drained.
func renderEvents(events <-chan processor.Event, cancel context.CancelFunc, useTUI bool, w io.Writer) <-chan struct{} {
	done := make(chan struct{})

	if !useTUI {
		go func() {
			defer close(done)
			for ev := range events {
				fmt.Fprintln(w, tui.RenderEvent(ev))
			}
		}()
		return done
	}

	program := tea.NewProgram(tui.NewModel(events, cancel), tea.WithOutput(w))
	go func() {
		defer close(done)
		if _, err := program.Run(); err != nil {
			// The view failed; keep the batch from blocking on a full channel.
			for range events {
			}
		}
	}()
	return done
}

func init() {
	addTransformFlags(processCmd.Flags())
	rootCmd.AddCommand(processCmd)
}
