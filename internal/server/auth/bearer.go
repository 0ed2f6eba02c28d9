package auth

import (
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// BearerToken extracts the token from an Authorization header value of the
// form "Bearer <token>".
func BearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return "", common.ErrMissingAuthHeader
	}

	token := strings.TrimSpace(header[len(common.BearerPrefix):])
	if token == "" {
		return "", common.ErrMissingAuthHeader
	}

	return token, nil
}
