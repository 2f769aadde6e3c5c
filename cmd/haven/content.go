package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naveenspark/haven/internal/store"
	"github.com/naveenspark/haven/pkg/domain"
)

func newBookmarksCmd(c *cli) *cobra.Command {
	list := func(cmd *cobra.Command, _ []string) error {
		svc, err := c.session()
		if err != nil {
			return err
		}
		b := svc.Bookmarks
		if err := storeErr(b.Refresh(cmd.Context()), b.LastError()); err != nil {
			return err
		}
		items := b.Items()
		if len(items) == 0 {
			fmt.Fprintln(c.out, dimStyle.Render("nothing saved yet")) //nolint:errcheck
			return nil
		}
		for _, bm := range items {
			fmt.Fprintf(c.out, "%-9s %-6s %s\n", bm.ContentType, bm.ContentID, bm.Title()) //nolint:errcheck
		}
		return nil
	}

	cmd := &cobra.Command{
		Use:     "bookmarks",
		Aliases: []string{"saved"},
		Short:   "List and toggle saved content",
		Args:    cobra.NoArgs,
		RunE:    list,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved content",
			Args:  cobra.NoArgs,
			RunE:  list,
		},
		&cobra.Command{
			Use:   "toggle <type> <id>",
			Short: "Save or unsave an article, video or exercise",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := domain.ParseContentType(args[0])
				if err != nil {
					return err
				}
				id := domain.ID(args[1])
				svc, err := c.session()
				if err != nil {
					return err
				}
				b := svc.Bookmarks
				// Toggle decides add or remove from what is loaded.
				if err := storeErr(b.Refresh(cmd.Context()), b.LastError()); err != nil {
					return err
				}
				if err := storeErr(b.Toggle(cmd.Context(), t, id), b.LastError()); err != nil {
					return fmt.Errorf("toggle bookmark: %w", err)
				}
				if b.IsMarked(t, id) {
					c.console.Info(fmt.Sprintf("saved %s %s", t, id))
				} else {
					c.console.Info(fmt.Sprintf("removed %s %s from saved", t, id))
				}
				return nil
			},
		},
	)
	return cmd
}

func newContentCmd(c *cli) *cobra.Command {
	var (
		search string
		page   int
	)
	cmd := &cobra.Command{
		Use:       "content <article|video|exercise>",
		Short:     "Browse articles, videos or exercises",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"article", "video", "exercise"},
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseContentType(args[0])
			if err != nil {
				return err
			}
			if page < 1 {
				return fmt.Errorf("page must be 1 or more, got %d", page)
			}
			svc, err := c.session()
			if err != nil {
				return err
			}
			items, err := svc.Client.ListContent(cmd.Context(), t, search, page)
			if err != nil {
				return err
			}
			// Stars are a nicety; a failed bookmark load only drops them.
			if !svc.Bookmarks.Refresh(cmd.Context()) {
				c.log.Warn("bookmarks unavailable for content listing")
			}
			printContent(c.out, items, svc.Bookmarks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by title or description")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func printContent(w io.Writer, items []domain.Content, marks *store.Bookmarks) {
	if len(items) == 0 {
		fmt.Fprintln(w, dimStyle.Render("nothing here")) //nolint:errcheck
		return
	}
	for _, it := range items {
		star := " "
		if marks.IsMarked(it.Type, it.ID) {
			star = "★"
		}
		line := fmt.Sprintf("%s %-6s %s", star, it.ID, strings.TrimSpace(it.Title))
		if it.ReadTime > 0 {
			line += dimStyle.Render(fmt.Sprintf("  %d min", it.ReadTime))
		}
		fmt.Fprintln(w, line) //nolint:errcheck
		if it.Description != "" {
			fmt.Fprintln(w, "         "+dimStyle.Render(it.Description)) //nolint:errcheck
		}
	}
}
