package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/naveenspark/haven/internal/browser"
)

const (
	siteURL    = "https://haven.app"
	termsURL   = siteURL + "/terms"
	privacyURL = siteURL + "/privacy"
	crisisURL  = "https://findahelpline.com"
)

// openURL is swapped out in tests.
var openURL = browser.Open

var havenGreetings = [...]string{
	"Take a breath. In for four, out for six. Then log in.",
	"You showed up. That counts for something.",
	"No streaks here. Just check in when you can.",
	"The kettle is on. Your saved articles are waiting.",
	"Five minutes for yourself is not selfish. It is maintenance.",
	"Nothing to catch up on. Nothing to prove. Come in.",
	"Your mood journal misses you. It will not say so twice.",
	"Some days are low days. Those count as check-ins too.",
	"A body scan takes ten minutes. Logging in takes ten seconds.",
	"Rest is productive. So is reading about why.",
	"Quiet corner, no notifications you did not ask for.",
	"Your reminders are here when you are ready for them.",
}

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7dd3c0")).Bold(true)
	quoteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cmdStyle   = lipgloss.NewStyle().Bold(true)
)

func printHelp(w io.Writer) {
	commands := []struct{ cmd, desc string }{
		{"haven", "Open your space (interactive TUI)"},
		{"haven login", "Sign in with email and password"},
		{"haven logout", "Clear your session"},
		{"haven whoami", "Show the signed-in account"},
		{"haven notifications", "List, count and mark notifications"},
		{"haven bookmarks", "List and toggle saved content"},
		{"haven content <type>", "Browse articles, videos or exercises"},
		{"haven mood", "Show or log a mood check-in"},
		{"haven crisis", "Find a crisis helpline"},
		{"haven terms", "Terms of Service"},
		{"haven privacy", "Privacy Policy"},
		{"haven version", "Show version"},
	}

	fmt.Fprintf(w, "\n  %s\n\n  %s\n\n  Commands:\n", //nolint:errcheck
		titleStyle.Render("H A V E N"),
		quoteStyle.Render(`"Be gentle with yourself. Here is what you can do."`))
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-24s", c.cmd)), dimStyle.Render(c.desc)) //nolint:errcheck
	}
	fmt.Fprintf(w, "\n  %s\n  %s\n\n", //nolint:errcheck
		dimStyle.Render("If you are in crisis, please reach out: "+crisisURL),
		dimStyle.Render(siteURL))
}

func printGreeting(w io.Writer) {
	msg := havenGreetings[rand.IntN(len(havenGreetings))]
	fmt.Fprintf(w, "\n%s\n\n%s\n\n%s\n\n", //nolint:errcheck
		titleStyle.Render("HAVEN"),
		quoteStyle.Render(msg),
		dimStyle.Render("To come in: haven login"))
}

// newLinkCmd opens url in the browser, printing it when no browser is
// available.
func newLinkCmd(use, short, url string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := openURL(url); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), url) //nolint:errcheck
			}
		},
	}
}
