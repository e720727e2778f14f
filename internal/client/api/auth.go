package api

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

const (
	PathSendOTP   = "/auth/send-otp"
	PathVerifyOTP = "/auth/verify-otp"
	PathRefresh   = "/auth/refresh"
	PathLogout    = "/auth/logout"
)

type AuthClient struct{ c *core }

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type User struct {
	ID    string      `json:"id"`
	Name  string      `json:"name,omitempty"`
	Phone string      `json:"phone"`
	Role  models.Role `json:"role"`
}

type verifyResponse struct {
	TokenPair
	User User `json:"user"`
}

// SendOTP asks the backend to text a one-time code to phone.
func (a *AuthClient) SendOTP(ctx context.Context, phone string, role models.Role) error {
	body := map[string]string{"phone": phone, "role": string(role)}
	return a.c.do(ctx, http.MethodPost, PathSendOTP, nil, body, nil)
}

// VerifyOTP exchanges the code for a session.
func (a *AuthClient) VerifyOTP(ctx context.Context, phone, otp string, role models.Role) (models.Session, error) {
	body := map[string]string{"phone": phone, "otp": otp, "role": string(role)}

	var out verifyResponse
	if err := a.c.do(ctx, http.MethodPost, PathVerifyOTP, nil, body, &out); err != nil {
		return models.Session{}, err
	}

	role = out.User.Role
	if role == "" {
		role = models.Role(body["role"])
	}
	return models.Session{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		UserID:       out.User.ID,
		Role:         role,
	}, nil
}

func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	var out TokenPair
	err := a.c.do(ctx, http.MethodPost, PathRefresh, nil, map[string]string{"refreshToken": refreshToken}, &out)
	return out, err
}

func (a *AuthClient) Logout(ctx context.Context) error {
	return a.c.do(ctx, http.MethodPost, PathLogout, nil, nil, nil)
}
