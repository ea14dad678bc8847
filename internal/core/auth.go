package core

import "fmt"

// UserID identifies an account. Like expense ids it may arrive as a JSON
// string or number.
type UserID string

func (id UserID) String() string {
	return string(id)
}

func (id *UserID) UnmarshalJSON(b []byte) error {
	s, err := decodeID(b)
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	*id = UserID(s)
	return nil
}

type (
	Credentials struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	Registration struct {
		Username string `json:"username" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	// AuthResult is the login response. Deployments of the API have used
	// both "token" and "accessToken" for the bearer credential.
	AuthResult struct {
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
		Message     string `json:"message"`
	}

	Profile struct {
		ID       UserID `json:"id,omitempty"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	// ProfileEnvelope mirrors the { "profile": {...} } response of GET /profile.
	ProfileEnvelope struct {
		Profile Profile `json:"profile"`
	}
)

// BearerToken returns whichever token field the server filled in.
func (r AuthResult) BearerToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}
