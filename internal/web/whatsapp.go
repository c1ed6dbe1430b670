package web

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"linkvault/internal/storage"
)

// twimlResponse is the minimal TwiML envelope Twilio expects back from a
// messaging webhook.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// handleWhatsApp receives Twilio's form-encoded webhook. The sender's
// phone number is their identity, so WhatsApp needs no linking step: an
// unknown number is just asked to register on the web first.
func (s *Server) handleWhatsApp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	body := strings.TrimSpace(r.PostFormValue("Body"))
	phone := strings.TrimPrefix(r.PostFormValue("From"), "whatsapp:")
	if body == "" || phone == "" {
		http.Error(w, "missing Body or From", http.StatusBadRequest)
		return
	}
	log := s.log.WithField("wa_from", phone)

	user, err := s.repo.GetUserByPhone(r.Context(), phone)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.writeTwiML(w, "This number isn't registered yet. Sign up on the web with this phone number, then message me again.")
			return
		}
		log.WithError(err).Error("WhatsApp user lookup failed")
		s.writeTwiML(w, "Something went wrong on our side. Please try again in a moment.")
		return
	}

	senderKey := fmt.Sprintf("wa:%s", phone)
	reply := s.pipeline.HandleMessage(r.Context(), user, senderKey, body)
	s.writeTwiML(w, reply.Text)
}

func (s *Server) writeTwiML(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	if err := xml.NewEncoder(w).Encode(twimlResponse{Message: message}); err != nil {
		s.log.WithError(err).Error("Failed to encode TwiML response")
	}
}
