package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newLeaderboardCmd() *cobra.Command {
	var (
		sortKey string
		dir     string
		search  string
		page    int
		perPage int
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the ranked leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if sortKey != "" {
				q.Set("sort", sortKey)
			}
			if dir != "" {
				q.Set("dir", dir)
			}
			if search != "" {
				q.Set("search", search)
			}
			if page > 0 {
				q.Set("page", strconv.Itoa(page))
			}
			if perPage > 0 {
				q.Set("per_page", strconv.Itoa(perPage))
			}

			path := "/api/v1/leaderboard"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var result LeaderboardResult
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&sortKey, "sort", "", "Sort key: xp, level, student_id, rank")
	cmd.Flags().StringVar(&dir, "dir", "", "Sort direction: asc, desc")
	cmd.Flags().StringVar(&search, "search", "", "Filter by name or student id")
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Rows per page")

	return cmd
}
