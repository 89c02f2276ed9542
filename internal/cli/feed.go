package cli

import (
	"errors"
	"fmt"

	"github.com/BloggingApp/feed-service/internal/feed"
	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/service"
	"github.com/spf13/cobra"
)

func newFeedCmd(app *App) *cobra.Command {
	var (
		category string
		pages    int
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the newest posts, one page at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := newCardRenderer(cmd.OutOrStdout())
			ctrl := feed.New(app.logger, app.services.Post, r, feed.WithIdentities(app.session))
			defer ctrl.Close()

			var loadErr error
			cb := feed.Callbacks{
				OnEmpty: func() {
					fmt.Fprintln(cmd.OutOrStdout(), metaStyle.Render("No posts yet."))
				},
				OnError: func(kind service.Kind, message string) {
					loadErr = &service.Error{Kind: kind, Op: "feed", Detail: message}
				},
			}

			ctrl.LoadPage(cmd.Context(), true, category, cb)
			for loaded := 1; loadErr == nil && r.loadMore && (all || loaded < pages); loaded++ {
				ctrl.LoadPage(cmd.Context(), false, category, cb)
			}

			if loadErr != nil {
				return writeErr(cmd, loadErr)
			}
			if r.loadMore {
				fmt.Fprintln(cmd.OutOrStdout(), metaStyle.Render("More posts available, use --pages or --all."))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", model.CategoryAll, "Category filter (all|tech|life|thoughts)")
	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to load")
	cmd.Flags().BoolVar(&all, "all", false, "Load every page")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if pages < 1 {
			return errors.New("--pages must be >= 1")
		}
		return nil
	}

	return cmd
}
