package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"kasetinfo/internal/auth"
	"kasetinfo/internal/metrics"
	"kasetinfo/internal/middleware"
	"kasetinfo/internal/session"
)

// Authenticator signs users in and out and reports session events.
// auth.Service satisfies it.
type Authenticator interface {
	SignIn(ctx context.Context, email, password, code string) (string, *session.Data, error)
	SignOut(ctx context.Context, token string) error
	Subscribe(fn func(auth.Event)) (unsubscribe func())
}

// SessionCookies writes the browser session cookie. session.Store
// satisfies it.
type SessionCookies interface {
	SetCookie(w http.ResponseWriter, token string)
	ClearCookie(w http.ResponseWriter)
}

// TOTPEnroller runs two-factor setup. auth.Enroller satisfies it.
type TOTPEnroller interface {
	Begin(ctx context.Context, userID uuid.UUID, email string) (*auth.Enrolment, error)
	Confirm(ctx context.Context, userID uuid.UUID, code string) error
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	auth     Authenticator
	cookies  SessionCookies
	enroller TOTPEnroller
}

// NewAuth creates a new Auth handler group.
func NewAuth(a Authenticator, cookies SessionCookies, enroller TOTPEnroller) *Auth {
	return &Auth{auth: a, cookies: cookies, enroller: enroller}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"`
}

type loginResponse struct {
	Token string            `json:"token"`
	State string            `json:"state"`
	Admin auth.AdminPayload `json:"admin"`
}

// Login checks credentials and opens a session. The token is returned in
// the body for API clients and set as a cookie for the browser admin.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	token, data, err := a.auth.SignIn(r.Context(), req.Email, req.Password, req.Code)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		metrics.AuthEvents.WithLabelValues("failed").Inc()
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}
	if err != nil {
		metrics.AuthEvents.WithLabelValues("error").Inc()
		slog.Error("sign in failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	a.cookies.SetCookie(w, token)

	g := auth.NewGate()
	g.Resolve(data)
	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		State: g.State().String(),
		Admin: auth.AdminView(g.State(), g.Session()),
	})
}

// Logout ends the current session, if any, and clears the cookie. The
// reported state comes from the caller's gate, which follows the sign-out
// event for the caller's token.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	g := gateFor(r)
	if token := session.TokenFromRequest(r); token != "" {
		stop := g.Watch(a.auth, token)
		err := a.auth.SignOut(r.Context(), token)
		stop()
		if err != nil {
			slog.Error("sign out failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}
	a.cookies.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"state": g.State().String()})
}

// gateFor runs the login gate over the session LoadSession resolved for
// this request. A failed lookup leaves the gate in Checking.
func gateFor(r *http.Request) *auth.Gate {
	g := auth.NewGate()
	g.Begin()
	if !middleware.SessionLookupFailed(r.Context()) {
		g.Resolve(middleware.SessionFromCtx(r.Context()))
	}
	return g
}

// Session reports the gate state for the caller.
func (a *Auth) Session(w http.ResponseWriter, r *http.Request) {
	g := gateFor(r)
	resp := map[string]any{"state": g.State().String()}
	if data := g.Session(); data != nil {
		resp["viewer"] = auth.Viewer{Email: data.Email, DisplayName: data.DisplayName, Role: data.Role}
	}
	writeJSON(w, http.StatusOK, resp)
}

// AdminPage returns the admin view for the caller's gate state: a login
// requirement, nothing while checking, or the item form.
func (a *Auth) AdminPage(w http.ResponseWriter, r *http.Request) {
	g := gateFor(r)
	writeJSON(w, http.StatusOK, auth.AdminView(g.State(), g.Session()))
}

// TwoFASetup generates a TOTP secret and QR code for the signed-in user.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	enrolment, err := a.enroller.Begin(r.Context(), sess.UserID, sess.Email)
	if err != nil {
		slog.Error("totp setup failed", "error", err, "user_id", sess.UserID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, enrolment)
}

// TwoFAEnable confirms the pending secret with a code from the app.
func (a *Auth) TwoFAEnable(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	err := a.enroller.Confirm(r.Context(), sess.UserID, strings.TrimSpace(req.Code))
	if errors.Is(err, auth.ErrInvalidCode) {
		writeError(w, http.StatusUnprocessableEntity, "รหัสยืนยันไม่ถูกต้อง")
		return
	}
	if err != nil {
		slog.Error("totp enable failed", "error", err, "user_id", sess.UserID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	slog.Info("two-factor enabled", "user_id", sess.UserID)
	writeJSON(w, http.StatusOK, map[string]bool{"totp_enabled": true})
}
