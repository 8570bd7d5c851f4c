package main

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lkarlslund/autolevel/internal/capture"
	"github.com/lkarlslund/autolevel/internal/config"
	"github.com/lkarlslund/autolevel/internal/template"
	"github.com/lkarlslund/autolevel/internal/vision"
	"github.com/lkarlslund/autolevel/internal/vision/cvmatch"
)

var matchCategory string

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <screenshot>",
		Short: "Match the templates against a screenshot and print confidences",
		Args:  cobra.ExactArgs(1),
		RunE:  runMatchCmd,
	}
	cmd.Flags().StringVar(&matchCategory, "category", "", "only match templates of this category")
	return cmd
}

func runMatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	settings, err := cfg.Settings()
	if err != nil {
		return fmt.Errorf("failed to resolve settings: %w", err)
	}

	categories := template.Categories
	if matchCategory != "" {
		c, err := template.ParseCategory(matchCategory)
		if err != nil {
			return err
		}
		categories = []template.Category{c}
	}

	logger := consoleLogger(cfg.Debug)
	store, err := template.Load(os.DirFS(cfg.TemplatesDir), logger)
	if err != nil {
		return err
	}
	source, err := capture.LoadImageSource(args[0], image.Rectangle{})
	if err != nil {
		return err
	}
	scanner := vision.NewScanner(source, cvmatch.New(), store, nil, logger, vision.Options{})
	defer scanner.Close()

	return printMatches(cmd.OutOrStdout(), scanner, categories, settings.Thresholds)
}

type categoryScanner interface {
	Scan(c template.Category, threshold float64) ([]vision.Result, error)
}

func printMatches(w io.Writer, s categoryScanner, categories []template.Category, thresholds template.ThresholdTable) error {
	fmt.Fprintf(w, "%-10s %-24s %10s %9s  %s\n", "CATEGORY", "TEMPLATE", "CONFIDENCE", "THRESHOLD", "MATCH")
	for _, c := range categories {
		threshold := thresholds.For(c)
		results, err := s.Scan(c, threshold)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintf(w, "%-10s %-24s %10s %9.2f  %s\n", c, "-", "-", threshold, "no templates")
			continue
		}
		for _, r := range results {
			verdict := "no"
			if r.Matched {
				verdict = fmt.Sprintf("yes at %v", r.Region)
			}
			fmt.Fprintf(w, "%-10s %-24s %10.3f %9.2f  %s\n", c, r.Name, r.Confidence, threshold, verdict)
		}
	}
	return nil
}
