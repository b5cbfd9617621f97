package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/middleware"
	"inkwell/internal/session"
)

// Sessions is the session store the sign-in handlers write to.
type Sessions interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Update(ctx context.Context, r *http.Request, data *session.Data) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	RevokeOthers(ctx context.Context, r *http.Request, userID string) (int, error)
}

// AdminChecker reports admin membership.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) bool
}

// Throttle limits events per key.
type Throttle interface {
	Allow(key string) (bool, time.Duration)
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	svc      *auth.Service
	sessions Sessions
	admins   AdminChecker
	perEmail Throttle
}

// NewAuth creates a new Auth handler group.
func NewAuth(svc *auth.Service, sessions Sessions, admins AdminChecker) *Auth {
	return &Auth{svc: svc, sessions: sessions, admins: admins}
}

// LimitPerEmail caps how often codes are sent to one address, whatever
// client asks for them.
func (a *Auth) LimitPerEmail(t Throttle) *Auth {
	a.perEmail = t
	return a
}

type otpRequest struct {
	Email string `json:"email"`
}

type otpVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type codeRequest struct {
	Code string `json:"code"`
}

// RequestCode emails a one-time sign-in code.
func (a *Auth) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	email, err := auth.NormalizeEmail(req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if a.perEmail != nil {
		if ok, wait := a.perEmail.Allow(email); !ok {
			w.Header().Set("Retry-After", middleware.RetryAfter(wait))
			writeFail(w, http.StatusTooManyRequests, "Too many codes requested for this address, try again later.")
			return
		}
	}
	if err := a.svc.RequestCode(r.Context(), email); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "message", "A sign-in code is on its way.")
}

// VerifyCode signs in with an emailed code. Accounts with an
// authenticator get a session that still awaits the second step.
func (a *Auth) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validateCode(req.Code); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}

	user, err := a.svc.SignIn(r.Context(), req.Email, strings.TrimSpace(req.Code))
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Any earlier session is replaced so a fresh id is issued.
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("previous session destroy failed", "error", err)
	}
	awaiting := user.HasAuthenticator()
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:       user.ID,
		Email:        user.Email,
		AwaitingTOTP: awaiting,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if awaiting {
		writeJSON(w, http.StatusOK, envelope{"success": true, "totpRequired": true})
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "totpRequired": false, "user": user})
}

// VerifyTOTP completes sign-in for accounts with an authenticator.
func (a *Auth) VerifyTOTP(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || !sess.AwaitingTOTP {
		writeFail(w, http.StatusUnauthorized, "Sign in with your emailed code first.")
		return
	}

	var req codeRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validateCode(req.Code); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}

	if err := a.svc.VerifyTOTP(r.Context(), sess.UserID, strings.TrimSpace(req.Code)); err != nil {
		writeError(w, r, err)
		return
	}

	sess.AwaitingTOTP = false
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := a.svc.User(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "user", user)
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	writeOK(w, http.StatusOK, "", nil)
}

// Me describes the caller. It also hands out the CSRF token clients echo
// on state-changing requests.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromCtx(ctx)
	sess := middleware.SessionFromCtx(ctx)

	body := envelope{
		"success":      true,
		"userId":       nil,
		"user":         nil,
		"isAdmin":      false,
		"totpRequired": sess != nil && sess.AwaitingTOTP,
		"csrfToken":    middleware.CSRFTokenFromCtx(ctx),
	}
	if userID != "" {
		body["userId"] = userID
		body["isAdmin"] = a.admins.IsAdmin(ctx, userID)

		user, err := a.svc.User(ctx, userID)
		switch {
		case errors.Is(err, auth.ErrUnknownUser):
			// Identities from the fallback cookie have no account record.
		case err != nil:
			writeError(w, r, err)
			return
		default:
			body["user"] = user
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// BeginTOTP generates an authenticator secret for the caller.
func (a *Auth) BeginTOTP(w http.ResponseWriter, r *http.Request) {
	e, err := a.svc.BeginTOTP(r.Context(), middleware.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"secret":  e.Secret,
		"url":     e.URL,
		"qrCode":  "data:image/png;base64," + base64.StdEncoding.EncodeToString(e.QRCode),
	})
}

// EnableTOTP activates the caller's pending authenticator and signs out
// the caller's other sessions, which were opened without it.
func (a *Auth) EnableTOTP(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validateCode(req.Code); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	userID := middleware.UserIDFromCtx(r.Context())
	if err := a.svc.EnableTOTP(r.Context(), userID, strings.TrimSpace(req.Code)); err != nil {
		writeError(w, r, err)
		return
	}
	if n, err := a.sessions.RevokeOthers(r.Context(), r, userID); err != nil {
		slog.Warn("revoking other sessions failed", "user_id", userID, "error", err)
	} else if n > 0 {
		slog.Info("other sessions revoked", "user_id", userID, "count", n)
	}
	writeOK(w, http.StatusOK, "message", "Authenticator enabled.")
}
