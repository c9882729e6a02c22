package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newDescCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "desc ID [ID...]",
		Short: "Describe repositories by numeric id",
		Long: `Describe one or more repositories by their numeric GitHub id.

Repositories are fetched in parallel and printed in the order given.
If any id fails nothing is printed and the first failing id, in argument
order, is reported.`,
		Example: `  ghtool desc 2126244
  ghtool desc 2126244 1062897 --output table`,
		Args: usageArgs(func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
				return err
			}
			_, err := parseIDs(args)
			return err
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return &usageError{err: err}
			}

			summaries, err := opts.service.Describe(cmd.Context(), ids)
			if err != nil {
				return err
			}
			return opts.render(summaries)
		},
	}
}

// parseIDs converts repository id arguments to integers
func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, newUsageError("invalid repository id %q: must be an integer", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
