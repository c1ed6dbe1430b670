package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"linkvault/internal/domain"
	"linkvault/internal/storage"
)

type registerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" || len(req.Password) < 4 {
		respondError(w, http.StatusBadRequest, "name, phone and a password of at least 4 characters are required")
		return
	}
	// WhatsApp delivers senders as "whatsapp:+<number>", so stored phones
	// must carry the "+" prefix to ever match.
	if !strings.HasPrefix(req.Phone, "+") {
		respondError(w, http.StatusBadRequest, "phone must be in international format, starting with +")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.WithError(err).Error("Failed to hash password")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := s.repo.CreateUser(r.Context(), req.Name, req.Phone, string(hash))
	if err != nil {
		if errors.Is(err, storage.ErrPhoneTaken) {
			respondError(w, http.StatusConflict, "phone number already registered")
			return
		}
		s.log.WithError(err).Error("Failed to create user")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.setSession(w, r, user.ID)
	s.log.WithField("user_id", user.ID).Info("User registered")
	respondJSON(w, http.StatusCreated, userResponse{ID: user.ID, Name: user.Name, Phone: user.Phone})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.repo.GetUserByPhone(r.Context(), strings.TrimSpace(req.Phone))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid phone or password")
			return
		}
		s.log.WithError(err).Error("Login lookup failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid phone or password")
		return
	}

	s.setSession(w, r, user.ID)
	respondJSON(w, http.StatusOK, userResponse{ID: user.ID, Name: user.Name, Phone: user.Phone})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		s.log.WithError(err).Error("Failed to clear session")
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) setSession(w http.ResponseWriter, r *http.Request, userID int64) {
	session, _ := s.store.Get(r, sessionName)
	session.Values["user_id"] = userID
	if err := session.Save(r, w); err != nil {
		s.log.WithError(err).Error("Failed to save session")
	}
}

// handleChat runs one message through the same pipeline the chat bots
// use. The web surface gets its own sender key so MCQ state never leaks
// across transports.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	user, err := s.repo.GetUserByID(r.Context(), userIDFrom(r))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	senderKey := fmt.Sprintf("web:%d", user.ID)
	reply := s.pipeline.HandleMessage(r.Context(), user, senderKey, req.Message)
	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	links, err := s.repo.Search(r.Context(), userIDFrom(r), r.URL.Query().Get("q"), r.URL.Query().Get("cat"))
	if err != nil {
		s.log.WithError(err).Error("Search failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if links == nil {
		links = []domain.SavedLink{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"links": links, "count": len(links)})
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	link, err := s.repo.RandomLink(r.Context(), userIDFrom(r))
	if err != nil {
		if errors.Is(err, storage.ErrLinkNotFound) {
			respondError(w, http.StatusNotFound, "no links saved yet")
			return
		}
		s.log.WithError(err).Error("Random pick failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, link)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	linkID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid link id")
		return
	}

	err = s.repo.DeleteLink(r.Context(), userIDFrom(r), linkID)
	if err != nil {
		if errors.Is(err, storage.ErrLinkNotFound) {
			respondError(w, http.StatusNotFound, "link not found")
			return
		}
		s.log.WithError(err).Error("Delete failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
