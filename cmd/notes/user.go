package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"notes/internal/app"
	"notes/internal/domain"
)

func profileCmd() *cobra.Command {
	var in domain.ProfileInput

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
		Long: `Show your profile. With --name, --bio or --email the profile is updated;
fields not given keep their current value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(e *env) error {
				u, err := e.users.Profile(cmd.Context())
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.Changed("name") || flags.Changed("bio") || flags.Changed("email") {
					if !flags.Changed("name") {
						in.Name = u.Name
					}
					if !flags.Changed("bio") {
						in.Bio = u.Bio
					}
					if !flags.Changed("email") {
						in.Email = u.Email
					}
					if u, err = e.users.UpdateProfile(cmd.Context(), in); err != nil {
						return err
					}
					success("Profile updated")
				}
				printUser(cmd.OutOrStdout(), u)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.Bio, "bio", "", "Short bio")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")

	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show note statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(e *env) error {
				st, err := e.users.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "Total notes:\t%d\n", st.TotalNotes)
				fmt.Fprintf(tw, "Enriched notes:\t%d\n", st.EnrichedNotes)
				fmt.Fprintf(tw, "This month:\t%d\n", st.NotesThisMonth)
				_ = tw.Flush()
				if len(st.RecentActivity) > 0 {
					fmt.Fprintln(out, "\nRecent activity:")
					for _, a := range st.RecentActivity {
						fmt.Fprintf(out, "  %s  %s\n", formatTime(a.Timestamp), a.Description)
					}
				}
				return nil
			})
		},
	}
}

func prefsCmd() *cobra.Command {
	var (
		name, email string
		prefs       domain.Preferences
	)

	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change your settings",
		Long: `Show your settings. Any flag given changes that setting; the others keep
their current value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(e *env) error {
				cur := e.users.CurrentPreferences()
				flags := cmd.Flags()
				if flags.NFlag() == 0 {
					printPrefs(cmd, cur)
					return nil
				}

				next := cur
				if flags.Changed("email-notifications") {
					next.Notifications.Email = prefs.Notifications.Email
				}
				if flags.Changed("push-notifications") {
					next.Notifications.Push = prefs.Notifications.Push
				}
				if flags.Changed("telegram-notifications") {
					next.Notifications.Telegram = prefs.Notifications.Telegram
				}
				if flags.Changed("auto-enrich") {
					next.AutoEnrichEnabled = prefs.AutoEnrichEnabled
				}
				if flags.Changed("language") {
					next.Language = prefs.Language
				}
				if err := e.users.SavePreferences(cmd.Context(), next, name, email); err != nil {
					return err
				}
				success("Settings saved")
				printPrefs(cmd, e.users.CurrentPreferences())
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Display name")
	f.StringVar(&email, "email", "", "Email address")
	f.BoolVar(&prefs.Notifications.Email, "email-notifications", false, "Email notifications")
	f.BoolVar(&prefs.Notifications.Push, "push-notifications", false, "Push notifications")
	f.BoolVar(&prefs.Notifications.Telegram, "telegram-notifications", true, "Telegram notifications")
	f.BoolVar(&prefs.AutoEnrichEnabled, "auto-enrich", true, "Enrich new notes automatically")
	f.StringVar(&prefs.Language, "language", "en", "Language (en, es, fr, de)")

	return cmd
}

func printPrefs(cmd *cobra.Command, p domain.Preferences) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Email notifications:\t%t\n", p.Notifications.Email)
	fmt.Fprintf(tw, "Push notifications:\t%t\n", p.Notifications.Push)
	fmt.Fprintf(tw, "Telegram notifications:\t%t\n", p.Notifications.Telegram)
	fmt.Fprintf(tw, "Auto-enrich:\t%t\n", p.AutoEnrichEnabled)
	fmt.Fprintf(tw, "Language:\t%s\n", p.Language)
	_ = tw.Flush()
}

func themeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or set the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(e *env) error {
				ctx := cmd.Context()
				if len(args) == 0 {
					t, err := e.themes.Current(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), t)
					return nil
				}
				if args[0] == "toggle" {
					t, err := e.themes.Toggle(ctx)
					if err != nil {
						return err
					}
					success("Theme set to %s", t)
					return nil
				}
				if err := e.themes.Set(ctx, app.Theme(args[0])); err != nil {
					return err
				}
				success("Theme set to %s", args[0])
				return nil
			})
		},
	}
	return cmd
}
