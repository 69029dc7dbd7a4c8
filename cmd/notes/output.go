package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"notes/internal/adapter/api"
	"notes/internal/domain"
)

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message to stderr.
func warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorText renders err for the terminal, preferring backend messages.
func errorText(err error) string {
	return api.Message(err)
}

func printNotes(w io.Writer, notes []domain.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notes.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUPDATED\tENRICHED")
	for _, n := range notes {
		enriched := ""
		if n.IsEnriched {
			enriched = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, clip(n.Title, 48), formatTime(n.UpdatedAt), enriched)
	}
	_ = tw.Flush()
}

func printNote(w io.Writer, n *domain.Note) {
	fmt.Fprintf(w, "%s\n%s\n\n", n.Title, strings.Repeat("=", len([]rune(n.Title))))
	fmt.Fprintln(w, n.Content)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "id: %s  created: %s  updated: %s", n.ID, formatTime(n.CreatedAt), formatTime(n.UpdatedAt))
	if n.IsEnriched {
		fmt.Fprint(w, "  enriched")
	}
	fmt.Fprintln(w)
}

func printUser(w io.Writer, u *domain.User) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", u.Name)
	if u.Email != "" {
		fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	}
	if u.Bio != "" {
		fmt.Fprintf(tw, "Bio:\t%s\n", u.Bio)
	}
	if u.TelegramUsername != "" {
		fmt.Fprintf(tw, "Telegram:\t@%s\n", u.TelegramUsername)
	}
	if u.IsPremium {
		fmt.Fprintf(tw, "Plan:\tpremium\n")
	}
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(tw, "Member since:\t%s\n", u.CreatedAt.Format("January 2006"))
	}
	_ = tw.Flush()
}

func userName(u *domain.User) string {
	if u == nil || u.Name == "" {
		return "unknown user"
	}
	return u.Name
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
