package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ghtool/internal/ctxlog"
	"ghtool/internal/repos"
	"ghtool/pkg/config"
)

const initCommandName = "init"

func newInitCommand(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   initCommandName,
		Short: "Initialize ghtool configuration",
		Long:  "Create a default configuration file for ghtool",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath := opts.configPath
			if configPath == "" {
				path, err := config.GetConfigPath()
				if err != nil {
					return newInternalError("failed to get config path", err)
				}
				configPath = path
			}

			if _, err := os.Stat(configPath); err == nil && !force {
				return repos.NewInvalidValueError(fmt.Sprintf("Configuration file already exists at %s (use --force to overwrite)", configPath))
			}

			if err := config.Default().SaveConfigToPath(configPath); err != nil {
				return newInternalError("failed to save configuration", err)
			}

			ctxlog.FromContext(cmd.Context()).Debug("configuration written", "path", configPath)
			fmt.Fprintf(cmd.ErrOrStderr(), "Configuration file created at: %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")

	return cmd
}
