package session

import (
	"net/http"
	"strings"
)

const (
	// HeaderToken carries the session token verbatim (primary web client).
	HeaderToken = "X-AUTH-TOKEN"

	headerAuthorization = "Authorization"
)

var authorizationSchemes = []string{"Bearer ", "Session "}

// TokenFromHeaders returns the candidate session token of a request.
// X-AUTH-TOKEN wins over Authorization. It never contacts the store.
func TokenFromHeaders(h http.Header) (string, bool) {
	if tok := strings.TrimSpace(h.Get(HeaderToken)); tok != "" {
		return tok, true
	}
	return TokenFromAuthorization(h)
}

// TokenFromAuthorization accepts only "Bearer <token>" and
// "Session <token>" (scheme matched case-insensitively).
func TokenFromAuthorization(h http.Header) (string, bool) {
	return parseAuthorization(h.Get(headerAuthorization))
}

func parseAuthorization(value string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, scheme := range authorizationSchemes {
		if len(value) >= len(scheme) && strings.EqualFold(value[:len(scheme)], scheme) {
			tok := strings.TrimSpace(value[len(scheme):])
			return tok, tok != ""
		}
	}
	return "", false
}

// SetTokenHeader hands a freshly issued token to header-based clients.
func SetTokenHeader(w http.ResponseWriter, token string) {
	w.Header().Set(HeaderToken, token)
}

// ExpireTokenHeader tells header-based clients to drop their token.
func ExpireTokenHeader(w http.ResponseWriter) {
	w.Header().Set(HeaderToken, "")
}
