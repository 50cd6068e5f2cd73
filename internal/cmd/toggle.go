package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"phpmdlens/internal/config"
)

// NewEnableCommand creates and returns the enable subcommand
func NewEnableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Turn phpmd on for this workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setEnabled(cmd, func(bool) bool { return true })
		},
	}
}

// NewDisableCommand creates and returns the disable subcommand
func NewDisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Turn phpmd off for this workspace",
		Long: `Turn phpmd off for this workspace. A running 'phpmdlens watch' picks the
change up and clears every published diagnostic.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setEnabled(cmd, func(bool) bool { return false })
		},
	}
}

// NewToggleCommand creates and returns the toggle subcommand
func NewToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Flip the enabled setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setEnabled(cmd, func(current bool) bool { return !current })
		},
	}
}

func setEnabled(cmd *cobra.Command, next func(current bool) bool) error {
	workspace, err := resolveWorkspace(cmd, "")
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(workspace)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	enabled := next(cfg.Enabled)
	path := configPathFor(workspace)
	if err := config.SetEnabled(path, enabled); err != nil {
		return err
	}

	state := color.YellowString("disabled")
	if enabled {
		state = color.GreenString("enabled")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "phpmd %s (%s)\n", state, path)
	return nil
}
