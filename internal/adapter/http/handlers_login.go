package adapthttp

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"notes/internal/adapter/telegram"
	"notes/internal/domain"
)

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Smartest Notes login</title></head>
<body>
<h1>Log in to Smartest Notes</h1>
<script async src="https://telegram.org/js/telegram-widget.js?22"
  data-telegram-login="{{.Bot}}"
  data-size="large"
  data-auth-url="{{.AuthURL}}"
  data-request-access="write"></script>
</body>
</html>
`))

var resultPage = template.Must(template.New("result").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Smartest Notes login</title></head>
<body>
{{if .OK}}<p>Logged in{{with .Name}} as {{.}}{{end}}. You can close this window.</p>
{{else}}<p>Login failed: {{.Error}}</p><p><a href="/login">Try again</a></p>{{end}}
</body>
</html>
`))

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	callback := url.URL{Scheme: "http", Host: r.Host, Path: "/login/callback"}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := loginPage.Execute(w, map[string]string{
		"Bot":     s.botName,
		"AuthURL": callback.String(),
	})
	if err != nil {
		s.log.Error("render login page", zap.Error(err))
	}
}

// handleLoginCallback completes a login widget redirect or a link carrying
// tg_* parameters.
func (s *Server) handleLoginCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	src := telegram.Detect(telegram.Environment{Query: q}, s.log)

	res, user := s.login(r, src, q)
	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnauthorized
		if src.Kind() == telegram.KindNone {
			status = http.StatusBadRequest
		}
	}

	var name string
	if user != nil {
		name = user.Name
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := resultPage.Execute(w, map[string]any{"OK": res.OK, "Name": name, "Error": res.Error}); err != nil {
		s.log.Error("render login result", zap.Error(err))
	}
}

type webAppRequest struct {
	InitData string `json:"initData"`
	// Query is the start URL's query string, used for the landing path.
	Query string `json:"query,omitempty"`
}

// handleWebAppLogin completes a login from a Telegram WebApp that posts its
// init data.
func (s *Server) handleWebAppLogin(w http.ResponseWriter, r *http.Request) {
	var req webAppRequest
	if err := parseJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.InitData == "" {
		writeError(w, http.StatusBadRequest, errors.New("initData is required"))
		return
	}
	q, err := url.ParseQuery(req.Query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	src := telegram.Detect(telegram.Environment{InitData: req.InitData}, s.log)
	res, user := s.login(r, src, q)
	if !res.OK {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": res.Error})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "redirect": res.Redirect, "user": user})
}

func (s *Server) login(r *http.Request, src telegram.Source, q url.Values) (LoginResult, *domain.User) {
	assertion, err := src.Assertion(s.now())
	if err != nil {
		s.log.Warn("telegram assertion", zap.String("source", string(src.Kind())), zap.Error(err))
		res := LoginResult{Error: err.Error()}
		s.publish(res)
		return res, nil
	}

	if !s.session.LoginWithTelegram(r.Context(), assertion) {
		msg := s.session.Err()
		if msg == "" {
			msg = "login was interrupted"
		}
		res := LoginResult{Error: msg}
		s.publish(res)
		return res, nil
	}

	res := LoginResult{OK: true, Redirect: "/"}
	if src.Kind() == telegram.KindNativeBridge {
		res.Redirect = telegram.LandingPath(q)
	}
	s.publish(res)
	return res, s.session.User()
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          userFromContext(r.Context()),
	})
}
