package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/naveenspark/haven/internal/app"
	"github.com/naveenspark/haven/internal/config"
	"github.com/naveenspark/haven/internal/logger"
	"github.com/naveenspark/haven/internal/store"
	"github.com/naveenspark/haven/internal/tui"
	"github.com/naveenspark/haven/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, newCLI(os.Stdout, os.Stderr), os.Args[1:], os.Stdin)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, c *cli, args []string, stdin io.Reader) int {
	defer c.close()

	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		c.console.Error(describe(err))
		return 1
	}
	return 0
}

// cli carries what every command needs. Services are built on first use
// so that version and help never touch the config or the token file.
type cli struct {
	out     io.Writer
	errOut  io.Writer
	console *log.Logger

	configPath string
	envFile    string

	cfg *config.Config
	log logger.Logger
	svc *app.App

	// runTUI is swapped out in tests.
	runTUI func(*app.App, logger.Logger) error
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{
		out:     stdout,
		errOut:  stderr,
		console: log.NewWithOptions(stderr, log.Options{Prefix: "haven"}),
		runTUI:  launchTUI,
	}
}

// services loads config, opens the log file and builds the app once.
func (c *cli) services() (*app.App, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	cfg, err := config.Load(config.Options{ConfigPath: c.configPath, EnvFile: c.envFile})
	if err != nil {
		return nil, err
	}
	l, err := logger.New(cfg.LogLevel, cfg.PrettyLog, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	c.cfg, c.log = cfg, l
	c.svc = app.New(cfg, l)
	return c.svc, nil
}

// session is services plus a restored login.
func (c *cli) session() (*app.App, error) {
	svc, err := c.services()
	if err != nil {
		return nil, err
	}
	if !svc.Authenticated() && !svc.Restore() {
		return nil, app.ErrSignedOut
	}
	return svc, nil
}

func (c *cli) close() {
	if c.svc != nil {
		c.svc.Close()
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "haven",
		Short:         "A calm place for your wellbeing, in the terminal.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.session()
			if errors.Is(err, app.ErrSignedOut) {
				printGreeting(c.out)
				return nil
			}
			if err != nil {
				return err
			}
			// Only a rejected token sends the user back to the greeting; an
			// unreachable server still opens the TUI, which retries. The first
			// poll may have signed the session out already.
			_, err = svc.Profile(cmd.Context())
			if errors.Is(err, app.ErrSignedOut) || client.KindOf(err) == client.KindAuth {
				printGreeting(c.out)
				return nil
			}
			return c.runTUI(svc, c.log)
		},
	}
	root.Version = version
	root.SetVersionTemplate("haven {{.Version}}\n")
	root.CompletionOptions.HiddenDefaultCmd = true
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/haven/config.toml)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "dotenv file to load (default .env)")

	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd == root {
			printHelp(cmd.OutOrStdout())
			return
		}
		defaultHelp(cmd, args)
	})

	root.AddCommand(
		newLoginCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newNotificationsCmd(c),
		newBookmarksCmd(c),
		newContentCmd(c),
		newMoodCmd(c),
		newVersionCmd(c),
		newLinkCmd("terms", "Terms of Service", termsURL),
		newLinkCmd("privacy", "Privacy Policy", privacyURL),
		newLinkCmd("crisis", "Find a crisis helpline near you", crisisURL),
	)
	return root
}

func launchTUI(svc *app.App, l logger.Logger) error {
	model := tui.NewApp(svc, l)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(c.out, "haven "+version) //nolint:errcheck
		},
	}
}

// describe turns an error into the line shown on stderr.
func describe(err error) string {
	if errors.Is(err, store.ErrBusy) {
		return "still working on that, try again in a moment"
	}
	if errors.Is(err, app.ErrSignedOut) || errors.Is(err, store.ErrUnauthenticated) {
		return "not logged in -- run: haven login"
	}
	switch client.KindOf(err) {
	case client.KindAuth:
		return "session expired -- run: haven login"
	case client.KindNetwork:
		var f *store.Failure
		if errors.As(err, &f) {
			return "could not reach haven: " + f.Err.Error()
		}
	}
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return err.Error()
}
