package models

type Role string

const (
	RoleTransporter Role = "transporter"
	RoleDriver      Role = "driver"
)

// Session is the token record written at login and cleared at logout.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
	Role         Role   `json:"role"`
}

// Authenticated reports whether an access token is present.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}
