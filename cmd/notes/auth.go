package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	adapthttp "notes/internal/adapter/http"
	"notes/internal/adapter/telegram"
	"notes/internal/config"
)

func loginCmd() *cobra.Command {
	var (
		initData    string
		callbackURL string
		listen      string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with Telegram",
		Long: `Log in with Telegram.

Without flags a local listener is started and the Telegram login widget is
served at http://<listen>/login. Open it in a browser and confirm in Telegram.

Examples:
  notes login
  notes login --init-data "$TG_INIT_DATA"
  notes login --callback-url "http://127.0.0.1:8765/login/callback?id=...&hash=..."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withEnv(ctx, func(e *env) error {
				bridge := launcherEnvironment(e.cfg, initData)
				switch {
				case bridge.InitData != "" || bridge.AliasInitData != "":
					return loginWith(ctx, e, bridge)
				case callbackURL != "":
					u, err := url.Parse(callbackURL)
					if err != nil {
						return fmt.Errorf("parse callback url: %w", err)
					}
					return loginWith(ctx, e, telegram.Environment{Query: u.Query()})
				}
				if listen == "" {
					listen = e.cfg.ListenAddr
				}
				return loginInteractive(ctx, e, listen, timeout)
			})
		},
	}

	cmd.Flags().StringVar(&initData, "init-data", "", "Telegram WebApp init data (default $TELEGRAM_INIT_DATA, then $TELEGRAM_WEBAPP_INIT_DATA)")
	cmd.Flags().StringVar(&callbackURL, "callback-url", "", "Login widget callback URL carrying the Telegram auth parameters")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address of the local login listener (default $NOTES_LISTEN_ADDR)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for the browser login")

	return cmd
}

// launcherEnvironment builds the WebApp bridge view from the --init-data flag
// and the launcher variables. The flag replaces both variables.
func launcherEnvironment(cfg *config.Config, flag string) telegram.Environment {
	if flag != "" {
		return telegram.Environment{InitData: flag}
	}
	return telegram.Environment{InitData: cfg.InitData, AliasInitData: cfg.AliasInitData}
}

func loginWith(ctx context.Context, e *env, tgEnv telegram.Environment) error {
	src := telegram.Detect(tgEnv, e.log.Named("telegram"))
	assertion, err := src.Assertion(time.Now())
	if err != nil {
		return err
	}
	if !e.session.LoginWithTelegram(ctx, assertion) {
		if msg := e.session.Err(); msg != "" {
			return errors.New(msg)
		}
		return errors.New("login was interrupted")
	}
	success("Logged in as %s", userName(e.session.User()))
	return nil
}

func loginInteractive(ctx context.Context, e *env, addr string, timeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("start login listener: %w", err)
	}
	srv := adapthttp.New(e.session, e.cfg.BotName, e.log.Named("http"))
	hs := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Error("login listener", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	info("Open http://%s/login in your browser and confirm with Telegram.", ln.Addr())

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case res := <-srv.Results():
			if res.OK {
				success("Logged in as %s", userName(e.session.User()))
				return nil
			}
			warn("Login failed: %s. Waiting for another attempt.", res.Error)
		case <-deadline.C:
			return errors.New("timed out waiting for the Telegram login")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Long:  `Remove the stored token and refresh token. The backend is not contacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(e *env) error {
				e.session.Logout(cmd.Context())
				success("Logged out")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(e *env) error {
				printUser(cmd.OutOrStdout(), e.session.User())
				return nil
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the login listener until interrupted",
		Long: `Run the local login listener until interrupted.

A Telegram WebApp or login widget can post credentials to it repeatedly.
With NOTES_METRICS=true the client counters are exposed at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withEnv(ctx, func(e *env) error {
				if listen == "" {
					listen = e.cfg.ListenAddr
				}
				e.session.Initialize(ctx)

				srv := adapthttp.New(e.session, e.cfg.BotName, e.log.Named("http"))
				if e.cfg.Metrics {
					srv.WithMetrics(promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
				}
				go func() {
					for {
						select {
						case res := <-srv.Results():
							if res.OK {
								success("Logged in as %s", userName(e.session.User()))
							} else {
								warn("Login failed: %s", res.Error)
							}
						case <-ctx.Done():
							return
						}
					}
				}()

				hs := &http.Server{Addr: listen, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
				errCh := make(chan error, 1)
				go func() { errCh <- hs.ListenAndServe() }()
				info("Listening on http://%s", listen)

				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-ctx.Done():
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return hs.Shutdown(shutdownCtx)
			})
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default $NOTES_LISTEN_ADDR)")
	return cmd
}
