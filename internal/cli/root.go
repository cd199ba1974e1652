package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vulture/internal/app"
	vperrors "vulture/pkg/errors"
)

var (
	appInstance *app.App
	version     = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vulture",
	Short: "Vulture VPN - one-key OpenVPN client for the terminal",
	Long: `Vulture VPN - one-key OpenVPN client for the terminal

  Pick a country, press the power key, watch the clock.

  Quick start:
    vulture servers
    vulture select Sweden
    vulture connect
    vulture tui

  OpenVPN must be installed. Bringing up the tun device needs root:
  run with sudo or set tunnel.elevate in the config file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return ensureApp(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appInstance != nil {
			return appInstance.Close()
		}
		return nil
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !alerted(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// alerted reports whether the controller already printed err as an alert.
func alerted(err error) bool {
	var (
		provErr *vperrors.ProvisioningError
		readErr *vperrors.ReadError
		tunErr  *vperrors.TunnelError
		selErr  *vperrors.SelectionError
	)
	return errors.As(err, &provErr) || errors.As(err, &readErr) ||
		errors.As(err, &tunErr) || errors.As(err, &selErr)
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (same as --log-level debug)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Vulture VPN %s\n", version)
	},
}
