package httpserver

import "github.com/dmitrijs2005/gophauth/internal/server/models"

// WebResponse is the envelope of every JSON reply except refresh-token.
type WebResponse struct {
	Data   any    `json:"data,omitempty"`
	Errors string `json:"errors,omitempty"`
}

type registerResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

type usersResponse struct {
	Users []*models.User `json:"users"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type statusResponse struct {
	Status string `json:"status"`
}
