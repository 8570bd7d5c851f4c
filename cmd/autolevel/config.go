package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lkarlslund/autolevel/internal/config"
)

var initForce bool

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or print the config file",
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE:  runConfigInitCmd,
	}
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	cmd.AddCommand(initCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective config",
		Args:  cobra.NoArgs,
		RunE:  runConfigShowCmd,
	})
	return cmd
}

func runConfigInitCmd(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := config.Default().Save(configPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
	return nil
}

func runConfigShowCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "List, switch and delete profiles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List profiles, marking the active one",
		Args:  cobra.NoArgs,
		RunE:  runProfileListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "use <name>",
		Short: "Make a profile the active one; a running bot switches to it",
		Args:  cobra.ExactArgs(1),
		RunE:  runProfileUseCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "copy <from> <to>",
		Short: "Create a profile from an existing one",
		Args:  cobra.ExactArgs(2),
		RunE:  runProfileCopyCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a profile; Default cannot be deleted",
		Args:  cobra.ExactArgs(1),
		RunE:  runProfileDeleteCmd,
	})
	return cmd
}

func runProfileListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	for _, name := range cfg.ProfileNames() {
		marker := " "
		if name == cfg.ActiveProfile {
			marker = "*"
		}
		p := cfg.Profiles[name]
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-16s highlight=%t duration=%dms\n", marker, name, p.ShowHighlight, p.HighlightDuration)
	}
	return nil
}

// updateConfig loads, applies change and saves the config.
func updateConfig(change func(*config.Config) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := change(&cfg); err != nil {
		return err
	}
	return cfg.Save(configPath)
}

func runProfileUseCmd(_ *cobra.Command, args []string) error {
	return updateConfig(func(cfg *config.Config) error {
		return cfg.UseProfile(args[0])
	})
}

func runProfileCopyCmd(_ *cobra.Command, args []string) error {
	return updateConfig(func(cfg *config.Config) error {
		from, found := cfg.Profiles[args[0]]
		if !found {
			return fmt.Errorf("profile %q does not exist", args[0])
		}
		p := from
		p.Thresholds = make(map[string]float64, len(from.Thresholds))
		for k, v := range from.Thresholds {
			p.Thresholds[k] = v
		}
		return cfg.SetProfile(args[1], p)
	})
}

func runProfileDeleteCmd(_ *cobra.Command, args []string) error {
	return updateConfig(func(cfg *config.Config) error {
		return cfg.DeleteProfile(args[0])
	})
}
