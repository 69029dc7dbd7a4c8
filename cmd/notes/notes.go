package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"notes/internal/app"
	"notes/internal/domain"
)

func listCmd() *cobra.Command {
	var (
		page   int
		limit  int
		sort   string
		order  string
		filter string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := app.ParseSortDirection(order)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), func(e *env) error {
				list, err := e.notes.List(cmd.Context(), app.ListOptions{
					Page:      page,
					Limit:     limit,
					SortField: sort,
					SortDesc:  desc,
					Search:    filter,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printNotes(out, list.Notes)
				fmt.Fprintf(out, "\n%d of %d notes\n", len(list.Notes), list.Total)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Notes per page")
	cmd.Flags().StringVar(&sort, "sort", "updatedAt", "Sort field (updatedAt, createdAt, title)")
	cmd.Flags().StringVar(&order, "order", "desc", "Sort direction (asc or desc)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only notes matching this text")

	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(e *env) error {
				n, err := e.notes.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printNote(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func createCmd() *cobra.Command {
	var (
		title     string
		noEnrich  bool
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create [content]",
		Short: "Create a note",
		Long: `Create a note from the argument or, with --stdin, from standard input.

Notes are enriched by AI unless --no-enrich is given or auto-enrichment is
disabled in your preferences.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := noteContent(cmd.InOrStdin(), args, fromStdin)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), func(e *env) error {
				autoEnrich := !noEnrich && e.users.CurrentPreferences().AutoEnrichEnabled
				n, err := e.notes.Create(cmd.Context(), title, content, autoEnrich)
				if err != nil {
					return err
				}
				success("Created note %s (%s)", n.ID, n.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Note title (default \"Untitled Note\")")
	cmd.Flags().BoolVar(&noEnrich, "no-enrich", false, "Skip AI enrichment")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read content from standard input")

	return cmd
}

func editCmd() *cobra.Command {
	var (
		title     string
		content   string
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a note's title or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromStdin {
				c, err := noteContent(cmd.InOrStdin(), nil, true)
				if err != nil {
					return err
				}
				content = c
			}
			return withSession(cmd.Context(), func(e *env) error {
				cur, err := e.notes.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("title") {
					title = cur.Title
				}
				if !cmd.Flags().Changed("content") && !fromStdin {
					content = cur.Content
				}
				n, err := e.notes.Update(cmd.Context(), args[0], title, content)
				if err != nil {
					return err
				}
				success("Updated note %s", n.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "New content")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read new content from standard input")

	return cmd
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(e *env) error {
				if err := e.notes.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				success("Deleted note %s", args[0])
				return nil
			})
		},
	}
}

func enrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich <id>",
		Short: "Run AI enrichment on a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(e *env) error {
				n, err := e.notes.Enrich(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				success("Enriched note %s", n.ID)
				printNote(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func searchCmd() *cobra.Command {
	var q domain.SearchQuery

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Query = strings.Join(args, " ")
			return withSession(cmd.Context(), func(e *env) error {
				list, err := e.notes.Search(cmd.Context(), q)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printNotes(out, list.Notes)
				for _, n := range list.Notes {
					for _, m := range n.Matches {
						fmt.Fprintf(out, "  %s: %s\n", n.ID, m)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&q.DateFrom, "from", "", "Only notes updated on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.DateTo, "to", "", "Only notes updated on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.SortBy, "sort", "relevance", "Sort by relevance, date or title")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 20, "Maximum results")

	return cmd
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show recent notes and counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(e *env) error {
				d, err := e.notes.Dashboard(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Welcome back, %s\n\n", userName(e.session.User()))
				fmt.Fprintf(out, "Total notes: %d   Enriched (recent): %d\n\n", d.TotalNotes, d.EnrichedCount)
				printNotes(out, d.RecentNotes)
				return nil
			})
		},
	}
}

func noteContent(stdin io.Reader, args []string, fromStdin bool) (string, error) {
	if fromStdin {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	if len(args) == 0 {
		return "", app.ErrEmptyContent
	}
	return args[0], nil
}

