package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vulture/internal/catalog"
	"vulture/internal/core/types"
)

var serversCmd = &cobra.Command{
	Use:     "servers",
	Aliases: []string{"countries", "ls"},
	Short:   "List available servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		check, _ := cmd.Flags().GetBool("check")
		provisionAll, _ := cmd.Flags().GetBool("provision")

		if check {
			return checkCatalog(appInstance.Catalog)
		}
		if provisionAll {
			if err := appInstance.ProvisionAll(context.Background()); err != nil {
				return err
			}
			fmt.Printf("Provisioned %d profiles\n", len(appInstance.Catalog.ConfigIDs()))
			return nil
		}

		snap := appInstance.Controller.Snapshot()
		fmt.Printf("  %-16s %-18s %s\n", "COUNTRY", "ADDRESS", "PROFILE")
		for _, e := range appInstance.Catalog.Entries() {
			mark := " "
			if snap.Selected != nil && snap.Selected.ConfigID == e.ConfigID {
				mark = "*"
				if snap.State == types.Connected {
					mark = "●"
				}
			}
			fmt.Printf("%s %-16s %-18s %s\n", mark, e.Name, e.Address, e.ConfigID)
		}
		return nil
	},
}

func checkCatalog(c *catalog.Catalog) error {
	warnings := c.Validate()
	if len(warnings) == 0 {
		fmt.Printf("%d servers, no problems found\n", c.Len())
		return nil
	}
	for _, w := range warnings {
		fmt.Printf("warning: %s\n", w)
	}
	return fmt.Errorf("%d catalog warning(s)", len(warnings))
}

var selectCmd = &cobra.Command{
	Use:               "select <server>",
	Short:             "Select the server to connect to",
	Long:              `Select a server by country or profile name. When connected, the tunnel is moved to the new server.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeServerNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, ok := appInstance.Catalog.LookupName(args[0])
		if !ok {
			return fmt.Errorf("server not found: %s", args[0])
		}

		ctrl := appInstance.Controller
		if err := ctrl.SelectServer(context.Background(), entry.ConfigID); err != nil {
			return err
		}
		if ctrl.State() == types.Connected {
			fmt.Printf("Connected to %s\n", entry.Name)
		} else {
			fmt.Printf("Selected %s\n", entry.Name)
		}
		return nil
	},
}

// matchServers returns catalog names starting with prefix, case-insensitively.
func matchServers(entries []catalog.ServerEntry, prefix string) []string {
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(strings.ToLower(e.Name), strings.ToLower(prefix)) {
			out = append(out, e.Name)
		}
	}
	return out
}

func init() {
	serversCmd.Flags().Bool("check", false, "report catalog entries sharing a profile with different display data")
	serversCmd.Flags().Bool("provision", false, "copy every bundled profile into the profile directory")

	rootCmd.AddCommand(serversCmd)
	rootCmd.AddCommand(selectCmd)
}
