package devserver

import (
	"net/http"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

var phoneRe = regexp.MustCompile(`^(\+91)?[6-9][0-9]{9}$`)

type otpRequest struct {
	Phone string      `json:"phone"`
	OTP   string      `json:"otp"`
	Role  models.Role `json:"role"`
}

func validRole(r models.Role) bool {
	return r == models.RoleTransporter || r == models.RoleDriver
}

func (s *Server) sendOTP(w http.ResponseWriter, r *http.Request) {
	var in otpRequest
	if !readJSON(w, r, &in) {
		return
	}
	if !phoneRe.MatchString(in.Phone) {
		writeError(w, http.StatusBadRequest, "INVALID_PHONE", "invalid phone number")
		return
	}
	if !validRole(in.Role) {
		writeError(w, http.StatusBadRequest, "INVALID_ROLE", "role must be transporter or driver")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var in otpRequest
	if !readJSON(w, r, &in) {
		return
	}
	if !validRole(in.Role) {
		writeError(w, http.StatusBadRequest, "INVALID_ROLE", "role must be transporter or driver")
		return
	}
	if in.OTP != s.cfg.OTP {
		writeError(w, http.StatusBadRequest, "INVALID_OTP", "invalid or expired OTP")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.data.user(in.Phone, in.Role)
	pair, err := s.issueLocked(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "could not issue tokens")
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"user":         api.User{ID: u.ID, Phone: u.Phone, Role: u.Role},
	})
}

// refresh rotates the refresh token: the presented one stops working.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.data.refresh[in.RefreshToken]
	if !ok || rt.Expires.Before(time.Now()) {
		delete(s.data.refresh, in.RefreshToken)
		writeError(w, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "refresh token expired")
		return
	}
	delete(s.data.refresh, in.RefreshToken)

	var u *user
	for _, cand := range s.data.users {
		if cand.ID == rt.UserID {
			u = cand
			break
		}
	}
	if u == nil {
		writeError(w, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "unknown user")
		return
	}

	pair, err := s.issueLocked(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "could not issue tokens")
		return
	}
	writeData(w, http.StatusOK, pair)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	p := caller(r)

	s.mu.Lock()
	for k, rt := range s.data.refresh {
		if rt.UserID == p.UserID {
			delete(s.data.refresh, k)
		}
	}
	delete(s.data.devices, p.UserID)
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) issueLocked(u *user) (api.TokenPair, error) {
	access, err := GenerateToken(Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID, ID: uuid.NewString()},
		Role:             string(u.Role),
		Phone:            u.Phone,
		Generation:       s.generation,
	}, []byte(s.cfg.SecretKey), s.cfg.AccessTokenValidityDuration)
	if err != nil {
		return api.TokenPair{}, err
	}

	refresh := uuid.NewString()
	s.data.refresh[refresh] = refreshToken{UserID: u.ID, Expires: time.Now().Add(s.cfg.RefreshTokenValidityDuration)}
	return api.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
