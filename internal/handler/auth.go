package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-console/internal/domain/auth"
	"github.com/xenking/pos-console/internal/session"
)

type loginData struct {
	Username string
	Error    string
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentState(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", page{Title: "Sign in", Data: loginData{}})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx)

	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Malformed form submission.")
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		h.render(w, r, http.StatusBadRequest, "login", page{
			Title: "Sign in",
			Data:  loginData{Username: username, Error: "Username and password are required."},
		})
		return
	}

	if limit := h.cfg.MaxSessions; limit > 0 && h.deps.Sessions.Len() >= limit {
		lg.Warn("Session limit reached", zap.Int("max_sessions", limit))
		h.render(w, r, http.StatusServiceUnavailable, "login", page{
			Title: "Sign in",
			Data:  loginData{Username: username, Error: "Too many operators are signed in. Please try again later."},
		})
		return
	}

	backend := h.deps.NewBackend()
	user, err := backend.Login(ctx, username, password)
	if err != nil {
		status, msg := http.StatusBadGateway, "Login failed. Please try again."
		if errors.Is(err, auth.ErrInvalidCredentials) {
			status, msg = http.StatusUnauthorized, "Invalid username or password."
		} else {
			lg.Warn("Login failed", zap.String("username", username), zap.Error(err))
		}
		h.render(w, r, status, "login", page{
			Title: "Sign in",
			Data:  loginData{Username: username, Error: msg},
		})
		return
	}

	st := session.NewState(session.NewID(), *user, backend, h.deps.Session)
	if err := st.LoadInitial(ctx, preferredStore(r)); err != nil {
		lg.Warn("Initial load failed", zap.String("session", st.ID), zap.Error(err))
	}
	h.deps.Sessions.Add(st)

	token, err := h.deps.Signer.Issue(st.ID, user.Username)
	if err != nil {
		h.deps.Sessions.Delete(st.ID)
		lg.Error("Issue session token", zap.Error(err))
		h.renderError(w, r, http.StatusInternalServerError, "Could not start a session.")
		return
	}
	http.SetCookie(w, h.cookie(sessionCookie, token, int(h.cfg.SessionTTL.Seconds())))

	lg.Info("Operator signed in",
		zap.String("username", user.Username),
		zap.String("session", st.ID),
	)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := stateFrom(ctx)

	if err := st.Backend.Logout(ctx); err != nil {
		zctx.From(ctx).Warn("Backend logout failed", zap.Error(err))
	}
	h.deps.Sessions.Delete(st.ID)
	http.SetCookie(w, h.cookie(sessionCookie, "", -1))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// currentState resolves the session of r from its cookie.
func (h *Handler) currentState(r *http.Request) (*session.State, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil, false
	}
	claims, err := h.deps.Signer.Parse(c.Value)
	if err != nil {
		return nil, false
	}
	return h.deps.Sessions.Get(claims.SessionID)
}

// requireSession attaches the caller's session to the request context.
// Browsers are sent to the login page; API callers get 401.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, ok := h.currentState(r)
		if !ok {
			http.SetCookie(w, h.cookie(sessionCookie, "", -1))
			if wantsJSON(r) {
				writeJSONError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := withState(r.Context(), st)
		ctx = zctx.Base(ctx, zctx.From(ctx).With(
			zap.String("session", st.ID),
			zap.String("username", st.User.Username),
		))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// preferredStore returns the store remembered from a previous session.
func preferredStore(r *http.Request) int64 {
	c, err := r.Cookie(storeCookie)
	if err != nil {
		return 0
	}
	id, err := strconv.ParseInt(c.Value, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
