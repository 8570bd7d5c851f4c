package main

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	cp "github.com/otiai10/copy"
	"github.com/spf13/cobra"

	"github.com/lkarlslund/autolevel/internal/config"
	"github.com/lkarlslund/autolevel/internal/template"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect and manage template images",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List loaded templates per category",
		Args:  cobra.NoArgs,
		RunE:  runTemplatesListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <category> <image>...",
		Short: "Copy images into the template directory under a category",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runTemplatesImportCmd,
	})
	return cmd
}

func runTemplatesListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	store, err := template.Load(os.DirFS(cfg.TemplatesDir), consoleLogger(cfg.Debug))
	if err != nil {
		return err
	}
	printTemplates(cmd.OutOrStdout(), store, cfg.Required())
	return nil
}

func printTemplates(w io.Writer, store *template.Store, required []template.Category) {
	for _, c := range template.Categories {
		ts := store.Templates(c)
		names := make([]string, 0, len(ts))
		for _, t := range ts {
			names = append(names, t.Name)
		}
		fmt.Fprintf(w, "%-10s %d  %s\n", c, len(ts), strings.Join(names, " "))
	}
	if missing := store.Missing(required); len(missing) > 0 {
		parts := make([]string, 0, len(missing))
		for _, c := range missing {
			parts = append(parts, c.String())
		}
		fmt.Fprintf(w, "missing required templates: %s\n", strings.Join(parts, ", "))
	}
}

func runTemplatesImportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c, err := template.ParseCategory(args[0])
	if err != nil {
		return err
	}
	for _, src := range args[1:] {
		dst, err := importTemplate(cfg.TemplatesDir, c, src)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", src, dst)
	}
	return nil
}

// importTemplate copies src into dir as the first free <category><n> name,
// keeping the source extension.
func importTemplate(dir string, c template.Category, src string) (string, error) {
	if !template.IsImageFile(src) {
		return "", fmt.Errorf("%s is not a png or jpeg file", src)
	}
	if err := checkImage(src); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating template directory: %w", err)
	}
	dst, err := nextTemplateName(dir, c, strings.ToLower(filepath.Ext(src)))
	if err != nil {
		return "", err
	}
	if err := cp.Copy(src, dst); err != nil {
		return "", fmt.Errorf("copying %s: %w", src, err)
	}
	return dst, nil
}

func checkImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("%s is an empty image", path)
	}
	return nil
}

// nextTemplateName numbers from 1 and skips numbers already used with any
// image extension.
func nextTemplateName(dir string, c template.Category, ext string) (string, error) {
	for n := 1; n < 10000; n++ {
		base := fmt.Sprintf("%s%d", c, n)
		taken := false
		for _, e := range []string{".png", ".jpg", ".jpeg"} {
			_, err := os.Stat(filepath.Join(dir, base+e))
			if err == nil {
				taken = true
				break
			}
			if !errors.Is(err, os.ErrNotExist) {
				return "", err
			}
		}
		if !taken {
			return filepath.Join(dir, base+ext), nil
		}
	}
	return "", fmt.Errorf("no free template name for %s in %s", c, dir)
}
