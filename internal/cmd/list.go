package cmd

import (
	"github.com/spf13/cobra"

	"ghtool/pkg/config"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "list [language]",
		Short: "List the most recently updated repositories",
		Long: `List the most recently updated public repositories, newest first.

When a language is given only repositories in that language are listed.
The number of repositories defaults to list.default_count from the config file.`,
		Example: `  ghtool list
  ghtool list python -n 5
  ghtool list --output table`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var language string
			if len(args) == 1 {
				language = args[0]
			}

			if !cmd.Flags().Changed("count") {
				count = opts.cfg.List.DefaultCount
			}

			summaries, err := opts.service.List(cmd.Context(), count, language)
			if err != nil {
				return err
			}
			return opts.render(summaries)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", config.DefaultCount, "number of repositories to list (1-30)")

	return cmd
}
