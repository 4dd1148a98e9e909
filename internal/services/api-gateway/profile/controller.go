package profile

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/Vidtube/internal/domain/user"
	"github.com/NordCoder/Vidtube/internal/services/api-gateway/auth"
	"github.com/NordCoder/Vidtube/internal/services/api-gateway/httpx"
)

type Server struct {
	log   *zap.Logger
	uc    *Usecase
	guard *auth.Middleware
}

func NewServer(log *zap.Logger, uc *Usecase, guard *auth.Middleware) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log, uc: uc, guard: guard}
}

func (s *Server) Routes(mux *http.ServeMux, prefix string) {
	current := s.guard.RequireUser(http.HandlerFunc(s.current))
	mux.Handle("GET "+prefix+"/current-user", current)
	mux.Handle("POST "+prefix+"/current-user", current)
	mux.Handle("PATCH "+prefix+"/update-account", s.guard.RequireUser(http.HandlerFunc(s.updateAccount)))
	mux.Handle("PATCH "+prefix+"/update-avatar", s.guard.RequireUser(http.HandlerFunc(s.updateAvatar)))
	mux.Handle("PATCH "+prefix+"/update-coverImage", s.guard.RequireUser(http.HandlerFunc(s.updateCoverImage)))
}

// current answers from the profile the guard attached; no extra lookup.
func (s *Server) current(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.ProfileFromCtx(r.Context())
	httpx.WriteJSON(w, http.StatusOK, p, "current user fetched")
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	id, _ := auth.UserIDFromCtx(r.Context())
	u, err := s.uc.UpdateAccount(r.Context(), id, req.FullName, req.Email)
	s.reply(w, u, err, "account details updated")
}

type mediaRequest struct {
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
}

func (s *Server) updateAvatar(w http.ResponseWriter, r *http.Request) {
	var req mediaRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	id, _ := auth.UserIDFromCtx(r.Context())
	u, err := s.uc.UpdateAvatar(r.Context(), id, req.Avatar)
	s.reply(w, u, err, "avatar updated")
}

func (s *Server) updateCoverImage(w http.ResponseWriter, r *http.Request) {
	var req mediaRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	id, _ := auth.UserIDFromCtx(r.Context())
	u, err := s.uc.UpdateCoverImage(r.Context(), id, req.CoverImage)
	s.reply(w, u, err, "cover image updated")
}

func (s *Server) reply(w http.ResponseWriter, u *user.User, err error, msg string) {
	if err != nil {
		httpx.WriteError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u.Profile(), msg)
}
