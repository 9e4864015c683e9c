package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "imgproc",
	Short: "imgproc - bulk crop, resize, watermark and convert images",
	Long: "imgproc transforms every image in a folder: optional center crop to an aspect ratio, " +
		"aspect-preserving resize, text watermark and re-encoding with quality control.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}
