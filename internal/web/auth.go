package web

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/erazemk/trgovina/internal/auth"
	"github.com/erazemk/trgovina/internal/store"
)

type loginData struct {
	PageData
	Email string
}

type registerData struct {
	PageData
	Name  string
	Email string
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := &loginData{PageData: PageData{Title: "Sign in"}}
	if r.URL.Query().Get("registered") == "1" {
		data.Success = "Account created. You can sign in now."
	}
	s.Templates.Render(w, http.StatusOK, "login.html", data)
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	creds := auth.Credentials{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	data := &loginData{PageData: PageData{Title: "Sign in"}, Email: creds.Email}

	if creds.Email == "" || creds.Password == "" {
		data.Error = "Enter your email and password."
		s.Templates.Render(w, http.StatusUnprocessableEntity, "login.html", data)
		return
	}

	session, err := s.Auth.Authenticate(r.Context(), creds)
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.Logger.Error("login failed", "error", err)
			status = http.StatusInternalServerError
		}
		data.Error = userMessage(err)
		s.Templates.Render(w, status, "login.html", data)
		return
	}

	s.setAuthCookie(w, session.Token, session.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout. The session's token is revoked so a copied
// cookie stops working too.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := sessionClaims(r, s.JWTSecret); claims != nil {
		if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
			s.Logger.Error("failed to revoke token", "error", err)
		}
		s.Carts.Drop(claims.UserID)
		s.Logger.Info("user logged out", "user_id", claims.UserID)
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, http.StatusOK, "register.html", &registerData{PageData: PageData{Title: "Create account"}})
}

// RegisterSubmit handles POST /register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	reg := auth.Registration{
		Name:            r.FormValue("name"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}

	if _, err := s.Auth.Register(r.Context(), reg); err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, auth.ErrUserExists) {
			status = http.StatusConflict
		}
		s.Templates.Render(w, status, "register.html", &registerData{
			PageData: PageData{Title: "Create account", Error: userMessage(err)},
			Name:     reg.Name,
			Email:    reg.Email,
		})
		return
	}

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}
