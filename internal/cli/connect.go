package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"vulture/internal/core/types"
	"vulture/internal/tui"
	vperrors "vulture/pkg/errors"
)

var connectCmd = &cobra.Command{
	Use:   "connect [server]",
	Short: "Connect to the selected server",
	Long: `Connect to a server by country name or profile name. Without an
argument the currently selected server is used.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeServerNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctrl := appInstance.Controller

		if len(args) > 0 {
			entry, ok := appInstance.Catalog.LookupName(args[0])
			if !ok {
				return fmt.Errorf("server not found: %s (see 'vulture servers')", args[0])
			}
			// Reconnects when already connected elsewhere.
			if err := ctrl.SelectServer(ctx, entry.ConfigID); err != nil {
				return err
			}
		}

		if ctrl.State() == types.Connected {
			snap := ctrl.Snapshot()
			fmt.Printf("Connected to %s (%s)\n", snap.Selected.Name, snap.Selected.Address)
			return nil
		}

		if err := ctrl.Connect(ctx); err != nil {
			return err
		}
		snap := ctrl.Snapshot()
		fmt.Printf("Connected to %s (%s)\n", snap.Selected.Name, snap.Selected.Address)
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect the current tunnel",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := appInstance.Controller.Disconnect(context.Background())
		if errors.Is(err, vperrors.ErrNotConnected) {
			fmt.Println("Not connected")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println("Disconnected")
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Connect when disconnected, disconnect when connected",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := appInstance.Controller.Toggle(ctx); err != nil {
			return err
		}
		snap := appInstance.Controller.Snapshot()
		if snap.State == types.Connected {
			fmt.Printf("Connected to %s\n", snap.Selected.Name)
		} else {
			fmt.Println("Disconnected")
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connection status",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := appInstance.Controller.Snapshot()

		fmt.Println("Connection Status")
		fmt.Println("═════════════════")
		fmt.Println()
		if snap.State == types.Connected {
			fmt.Printf("Status:     ● Connected\n")
		} else {
			fmt.Printf("Status:     ○ Disconnected\n")
		}
		if snap.Selected != nil {
			fmt.Printf("Server:     %s\n", snap.Selected.Name)
			fmt.Printf("Address:    %s\n", snap.Selected.Address)
			fmt.Printf("Profile:    %s\n", snap.Selected.ConfigID)
		} else {
			fmt.Printf("Server:     none selected\n")
		}
		if snap.State == types.Connected {
			fmt.Printf("Session:    %s\n", tui.FormatClock(snap.Elapsed))
		}
		fmt.Printf("Tunnel log: %s\n", appInstance.Tunnel.LogPath())

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch || snap.State != types.Connected {
			return nil
		}
		return watchStatus()
	},
}

// watchStatus prints clock and speed once a second until interrupted or
// the tunnel goes away.
func watchStatus() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	fmt.Println()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case <-ticker.C:
			if !appInstance.Tunnel.Active() {
				fmt.Println("\ntunnel went down")
				return nil
			}
			snap := appInstance.Controller.Snapshot()
			up, down := tui.FormatSpeeds(snap.Sample)
			fmt.Printf("\r%s   ↑ %-12s ↓ %-12s", tui.FormatClock(snap.Elapsed), up, down)
		}
	}
}

func init() {
	statusCmd.Flags().BoolP("watch", "w", false, "keep printing session time and speed")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(statusCmd)
}
