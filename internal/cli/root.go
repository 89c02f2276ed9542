package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BloggingApp/feed-service/internal/config"
	"github.com/BloggingApp/feed-service/internal/identity"
	"github.com/BloggingApp/feed-service/internal/repository"
	"github.com/BloggingApp/feed-service/internal/service"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type App struct {
	ConfigDir string
	Token     string
	Pretty    bool
	Verbose   bool

	logger   *zap.Logger
	cfg      *config.Config
	services *service.Service
	session  *identity.Session
	closeFn  func()
}

// NewApp returns an App wired to prebuilt collaborators instead of the configured store.
func NewApp(logger *zap.Logger, services *service.Service, session *identity.Session) *App {
	return &App{
		logger:   logger,
		cfg:      &config.Config{Feed: config.FeedConfig{PageSize: 6}},
		services: services,
		session:  session,
	}
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func NewRootCmdWith(app *App) *cobra.Command {
	return newRootCmd(app)
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "blogctl",
		Short:        "Browse and manage blog posts from the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Show the newest posts
  blogctl feed

  # Walk every tech post
  blogctl feed --category tech --all

  # Publish a post
  blogctl --token "$TOKEN" post create --title "Hello" --content "First post" --tags go,blog
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init(cmd.Context())
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		app.close()
	}

	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config", envOr("BLOG_CONFIG_DIR", "."), "Directory holding app.yaml and .env")
	cmd.PersistentFlags().StringVar(&app.Token, "token", envOr("BLOG_TOKEN", ""), "ID token of the signed-in user")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(newFeedCmd(app))
	cmd.AddCommand(newPostCmd(app))
	cmd.AddCommand(newMessageCmd(app))

	return cmd
}

func (app *App) init(ctx context.Context) error {
	if app.logger == nil {
		if app.Verbose {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			app.logger = logger
		} else {
			app.logger = zap.NewNop()
		}
	}

	if app.session == nil {
		app.session = identity.NewSession()
	}

	if app.services == nil {
		if err := app.openServices(ctx); err != nil {
			return err
		}
	}

	if app.Token != "" {
		app.signIn()
	}

	return nil
}

func (app *App) openServices(ctx context.Context) error {
	_ = godotenv.Load(app.ConfigDir + "/.env")

	v := viper.New()
	v.AddConfigPath(app.ConfigDir)
	v.SetConfigType("yaml")
	v.SetConfigName("app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read app.yaml: %w", err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	app.cfg = cfg

	repos, err := repository.Open(ctx, cfg, app.logger)
	if err != nil {
		return err
	}
	app.closeFn = repos.Close

	opts := service.OptionsFromConfig(cfg)
	opts.Identities = app.session
	app.services = service.New(app.logger, repos, opts)

	return nil
}

// signIn verifies --token. A bad token fails the session, which keeps reads
// working and disables mutations.
func (app *App) signIn() {
	ident, err := identity.NewVerifier(app.cfg.AccessSecret).Verify(app.Token)
	if err != nil {
		app.logger.Sugar().Errorf("failed to verify token: %s", err.Error())
		app.session.Fail(err)
		return
	}
	app.session.SignIn(*ident)
}

func (app *App) close() {
	if app.closeFn != nil {
		app.closeFn()
		app.closeFn = nil
	}
	_ = app.logger.Sync()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(service.UserMessage(err)))
	return err
}
