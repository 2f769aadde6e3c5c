package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naveenspark/haven/internal/session"
	"github.com/naveenspark/haven/pkg/domain"
)

// passwordEnv lets scripts log in without a prompt.
const passwordEnv = "HAVEN_PASSWORD"

func newLoginCmd(c *cli) *cobra.Command {
	var creds domain.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in and save the session token to ~/.haven/token.

The password is taken from --password, then $HAVEN_PASSWORD, then a
prompt on stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			in := bufio.NewReader(cmd.InOrStdin())
			if creds.Email == "" {
				if creds.Email, err = prompt(cmd.ErrOrStderr(), in, "email: "); err != nil {
					return err
				}
			}
			if creds.Password == "" {
				creds.Password = os.Getenv(passwordEnv)
			}
			if creds.Password == "" {
				if creds.Password, err = prompt(cmd.ErrOrStderr(), in, "password: "); err != nil {
					return err
				}
			}

			u, err := svc.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			name := "friend"
			if u != nil && u.Name != "" {
				name = u.Name
			}
			c.console.Info("welcome, " + name)
			if os.Getenv(session.TokenEnv) != "" {
				c.console.Warn(session.TokenEnv + " is set and will take precedence over the saved token")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password (prefer $"+passwordEnv+")")
	return cmd
}

func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label) //nolint:errcheck
	line, err := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s%w", label, err)
	}
	return line, nil
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear your session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			if !svc.Restore() {
				c.console.Info("already logged out")
				return nil
			}
			fromEnv := svc.Session.FromEnv()
			if err := svc.Logout(cmd.Context()); err != nil {
				return err
			}
			c.console.Info("logged out")
			if fromEnv {
				c.console.Warn("unset " + session.TokenEnv + " to stay logged out")
			}
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.session()
			if err != nil {
				return err
			}
			u, err := svc.Profile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s <%s>\n", u.Name, u.Email) //nolint:errcheck
			if exp, ok := session.ExpiresAt(svc.Session.Token()); ok {
				fmt.Fprintf(c.out, "session expires %s\n", exp.Local().Format("Jan 2 15:04")) //nolint:errcheck
			}
			return nil
		},
	}
}
