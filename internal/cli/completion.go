package cli

import (
	"github.com/spf13/cobra"

	"vulture/internal/app"
)

// ensureApp lazily initializes appInstance. Cobra may invoke
// ValidArgsFunction without running PersistentPreRunE.
func ensureApp(cmd *cobra.Command) error {
	if appInstance != nil {
		return nil
	}

	opts := app.Options{}
	opts.ConfigPath, _ = cmd.Flags().GetString("config")
	opts.LogLevel, _ = cmd.Flags().GetString("log-level")
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		opts.LogLevel = "debug"
	}

	var err error
	appInstance, err = app.New(opts)
	if err != nil {
		return err
	}
	return nil
}

// completeServerNames provides shell completion for catalog entries.
func completeServerNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := ensureApp(cmd); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return matchServers(appInstance.Catalog.Entries(), toComplete), cobra.ShellCompDirectiveNoFileComp
}
