package cli

import (
	"context"
	"fmt"

	"github.com/BloggingApp/feed-service/internal/dto"
	"github.com/BloggingApp/feed-service/internal/feed"
	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/permission"
	"github.com/spf13/cobra"
)

func newPostCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post commands",
	}
	cmd.AddCommand(newPostGetCmd(app))
	cmd.AddCommand(newPostPermissionCmd(app))
	cmd.AddCommand(newPostCreateCmd(app))
	cmd.AddCommand(newPostUpdateCmd(app))
	cmd.AddCommand(newPostDeleteCmd(app))
	return cmd
}

type postFlags struct {
	title    string
	excerpt  string
	content  string
	category string
	tags     string
	readTime int
}

func (f *postFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Post title (max 100 characters)")
	cmd.Flags().StringVar(&f.excerpt, "excerpt", "", "Short summary (max 200 characters)")
	cmd.Flags().StringVar(&f.content, "content", "", "Post body")
	cmd.Flags().StringVar(&f.category, "category", model.CategoryFallback, "Category (tech|life|thoughts)")
	cmd.Flags().StringVar(&f.tags, "tags", "", "Comma-separated tags")
	cmd.Flags().IntVar(&f.readTime, "read-time", 0, "Reading time in minutes (estimated from the content when 0)")
}

func (f *postFlags) input() dto.PostInput {
	return dto.PostInput{
		Title:    f.title,
		Excerpt:  f.excerpt,
		Content:  f.content,
		Category: f.category,
		Tags:     dto.SplitTags(f.tags),
		ReadTime: f.readTime,
	}
}

// watchFeed prints the first page again after the mutation succeeds or finds
// its post already gone.
func watchFeed(cmd *cobra.Command, app *App, category string) func() {
	ctrl := feed.New(app.logger, app.services.Post, newCardRenderer(cmd.OutOrStdout()), feed.WithIdentities(app.session))
	cancel := app.services.OnChange(func(ctx context.Context) {
		fmt.Fprintln(cmd.OutOrStdout(), metaStyle.Render("Feed:"))
		ctrl.LoadPage(ctx, true, category, feed.Callbacks{
			OnEmpty: func() {
				fmt.Fprintln(cmd.OutOrStdout(), metaStyle.Render("No posts yet."))
			},
		})
	})
	return func() {
		cancel()
		ctrl.Close()
	}
}

func newPostGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <post-id>",
		Short: "Show one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := app.services.Post.FindByID(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, dto.GetPost{
				Post:       *post,
				Permission: app.services.Post.Evaluate(app.session.Current(), post).String(),
			})
		},
	}
}

func newPostPermissionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "permission <post-id>",
		Short: "Show what the signed-in user may do with a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := app.services.Post.Permission(cmd.Context(), args[0], app.session.Current())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, dto.GetPermission{PostID: args[0], Permission: level.String()})
		},
	}
}

func newPostCreateCmd(app *App) *cobra.Command {
	var (
		flags    postFlags
		showFeed bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showFeed {
				defer watchFeed(cmd, app, model.CategoryAll)()
			}

			post, err := app.services.Post.Create(cmd.Context(), flags.input(), app.session.Current())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, post)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&showFeed, "feed", false, "Print the refreshed feed afterwards")
	return cmd
}

func newPostUpdateCmd(app *App) *cobra.Command {
	var (
		flags    postFlags
		showFeed bool
	)

	cmd := &cobra.Command{
		Use:   "update <post-id>",
		Short: "Replace the fields of a post you wrote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showFeed {
				defer watchFeed(cmd, app, model.CategoryAll)()
			}

			post, err := app.services.Post.Update(cmd.Context(), args[0], flags.input(), app.session.Current(), permission.Unknown)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, post)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&showFeed, "feed", false, "Print the refreshed feed afterwards")
	return cmd
}

func newPostDeleteCmd(app *App) *cobra.Command {
	var showFeed bool

	cmd := &cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete a post you wrote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showFeed {
				defer watchFeed(cmd, app, model.CategoryAll)()
			}

			if err := app.services.Post.Delete(cmd.Context(), args[0], app.session.Current(), permission.Unknown); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, dto.NewBasicResponse(true, "post deleted"))
		},
	}

	cmd.Flags().BoolVar(&showFeed, "feed", false, "Print the refreshed feed afterwards")
	return cmd
}
