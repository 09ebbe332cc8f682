package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-blog/backend/auth"
	"github.com/inkwell-blog/backend/database"
	"github.com/inkwell-blog/backend/errs"
	"github.com/inkwell-blog/backend/models"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	users     database.UserStore
	tokens    auth.TokenIssuer
}

func newAuthHandler(users database.UserStore, tokens auth.TokenIssuer) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		users:     users,
		tokens:    tokens,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// register creates a new account and issues its first token.
func (h authHandler) register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))

		if err := validateRegister(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		existing, err := h.users.FindByEmailOrUsername(r.Context(), req.Email, req.Username)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "user", err))
			return
		}
		if existing != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("user with this email or username already exists"))
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalError("failed to hash password"))
			return
		}

		user := &models.User{
			Username: req.Username,
			Email:    req.Email,
			Password: hash,
			Role:     models.RoleUser,
		}

		if err := h.users.Insert(r.Context(), user); err != nil {
			if errs.IsDuplicateKey(err) {
				h.responder.WriteError(w, errs.NewBadRequestError("user with this email or username already exists"))
				return
			}
			h.responder.WriteError(w, errs.NewDatabaseError("create", "user", err))
			return
		}

		token, err := h.tokens.Issue(user.ID.Hex())
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalError("failed to issue token"))
			return
		}

		h.responder.WriteCreated(w, AuthResponse{Token: token, User: newUserSummary(user)})
	}
}

// login verifies credentials and issues a token. Unknown email and
// wrong password are indistinguishable to the caller.
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("email and password are required"))
			return
		}

		user, err := h.users.FindByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				h.responder.WriteError(w, errs.NewBadRequestError("invalid credentials"))
				return
			}
			h.responder.WriteError(w, errs.NewDatabaseError("find", "user", err))
			return
		}

		if !auth.CheckPassword(user.Password, req.Password) {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid credentials"))
			return
		}

		token, err := h.tokens.Issue(user.ID.Hex())
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalError("failed to issue token"))
			return
		}

		h.responder.WriteJSON(w, AuthResponse{Token: token, User: newUserSummary(user)})
	}
}

// me returns the authenticated account.
func (h authHandler) me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())
		h.responder.WriteJSON(w, map[string]UserSummary{"user": newUserSummary(user)})
	}
}

func validateRegister(req registerRequest) error {
	if len(req.Username) < minUsernameLength {
		return errs.NewValidationError("username", "username must be at least 3 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return errs.NewValidationError("email", "please enter a valid email")
	}
	if len(req.Password) < minPasswordLength {
		return errs.NewValidationError("password", "password must be at least 6 characters")
	}
	return nil
}
