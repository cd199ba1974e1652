package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"vulture/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal UI",
	Long:  `Launch the full-screen terminal UI: power toggle, session clock, speeds, world map and country list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Copy profiles up front so the first connect does not wait on it.
		if err := appInstance.ProvisionAll(context.Background()); err != nil {
			appInstance.Log.WithError(err).Warn("failed to provision some profiles")
		}

		cfg := appInstance.Config
		binary := cfg.Tunnel.Binary
		if binary == "" {
			binary = "openvpn (PATH)"
		}

		deps := tui.Deps{
			Controller: appInstance.Controller,
			Settings:   appInstance.Storage,
			Info: tui.Info{
				DisplayName: cfg.Identity.DisplayName,
				BundleID:    cfg.Identity.BundleID,
				CompatMode:  cfg.CompatMode(),
				Device:      cfg.Tunnel.Device,
				Binary:      binary,
				ConfigPath:  appInstance.ConfigPath,
				TunnelLog:   appInstance.Tunnel.LogPath(),
			},
		}

		p := tui.NewProgram(deps)
		appInstance.SetAlertSink(tui.Alert(p))
		defer appInstance.SetAlertSink(nil)

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
