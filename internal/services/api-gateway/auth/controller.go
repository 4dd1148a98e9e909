package auth

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
	"github.com/NordCoder/Vidtube/internal/obs"
	"github.com/NordCoder/Vidtube/internal/services/api-gateway/httpx"
)

type Server struct {
	log          *zap.Logger
	uc           *Usecase
	guard        *Middleware
	cookieDomain string
	cookiePath   string
	cookieSecure bool
	sameSite     http.SameSite
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

type Opts struct {
	Logger       *zap.Logger
	CookieDomain string
	CookiePath   string
	CookieSecure bool
	SameSite     http.SameSite
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

func NewServer(uc *Usecase, guard *Middleware, o Opts) *Server {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if o.CookiePath == "" {
		o.CookiePath = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return &Server{
		log:          log,
		uc:           uc,
		guard:        guard,
		cookieDomain: o.CookieDomain,
		cookiePath:   o.CookiePath,
		cookieSecure: o.CookieSecure,
		sameSite:     o.SameSite,
		accessTTL:    o.AccessTTL,
		refreshTTL:   o.RefreshTTL,
	}
}

// Routes mounts the session endpoints under prefix, e.g. "/api/v1/users".
func (s *Server) Routes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("POST "+prefix+"/register", s.register)
	mux.HandleFunc("POST "+prefix+"/login", s.login)
	mux.HandleFunc("POST "+prefix+"/refresh-token", s.refresh)
	mux.Handle("POST "+prefix+"/logout", s.guard.RequireUser(http.HandlerFunc(s.logout)))
	mux.Handle("POST "+prefix+"/change-password", s.guard.RequireUser(http.HandlerFunc(s.changePassword)))
}

type registerRequest struct {
	FullName   string `json:"fullName"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	u, err := s.uc.Register(r.Context(), RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   req.Password,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
	})
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, u.Profile(), "user registered")
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	handle := req.Username
	if handle == "" {
		handle = req.Email
	}

	sess, err := s.uc.Login(r.Context(), handle, req.Password)
	if errors.Is(err, domainauth.ErrNotFound) && req.Username != "" && req.Email != "" {
		// Either field may identify the account.
		sess, err = s.uc.Login(r.Context(), req.Email, req.Password)
	}
	if err != nil {
		// Unknown handle and wrong password look the same to the client.
		if errors.Is(err, domainauth.ErrNotFound) {
			err = domainauth.ErrInvalidCredential
		}
		httpx.WriteError(w, s.log, err)
		return
	}

	s.setTokenCookies(w, sess.Tokens)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user":         sess.User,
		"accessToken":  sess.Tokens.Access.Value,
		"refreshToken": sess.Tokens.Refresh.Value,
	}, "logged in")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	raw := ""
	if c, err := r.Cookie(RefreshCookie); err == nil {
		raw = c.Value
	}
	if raw == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := httpx.DecodeJSON(r, &req); err == nil {
			raw = req.RefreshToken
		}
	}

	pair, err := s.uc.Refresh(r.Context(), raw)
	if err != nil {
		s.clearTokenCookies(w)
		httpx.WriteError(w, s.log, err)
		return
	}

	s.setTokenCookies(w, pair)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"accessToken":  pair.Access.Value,
		"refreshToken": pair.Refresh.Value,
	}, "access token refreshed")
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	id, _ := UserIDFromCtx(r.Context())
	if err := s.uc.Logout(r.Context(), id); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	s.clearTokenCookies(w)
	httpx.WriteJSON(w, http.StatusOK, struct{}{}, "logged out")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	id, _ := UserIDFromCtx(r.Context())
	if err := s.uc.ChangePassword(r.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		obs.WithTrace(r.Context(), s.log).Info("auth.change_password rejected", zap.String("user_id", id), zap.Error(err))
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, struct{}{}, "password changed")
}

func (s *Server) setTokenCookies(w http.ResponseWriter, pair domainauth.TokenPair) {
	http.SetCookie(w, s.cookie(AccessCookie, pair.Access.Value, s.accessTTL))
	http.SetCookie(w, s.cookie(RefreshCookie, pair.Refresh.Value, s.refreshTTL))
}

func (s *Server) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c := s.cookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0).UTC()
		http.SetCookie(w, c)
	}
}

func (s *Server) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.cookiePath,
		Domain:   s.cookieDomain,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: s.sameSite,
		MaxAge:   int(ttl.Seconds()),
	}
}
