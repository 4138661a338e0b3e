// Package token issues unsubscribe tokens and builds unsubscribe links.
package token

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh unsubscribe token.
func New() string {
	return uuid.New().String()
}

// UnsubscribeURL builds the public unsubscribe link embedded in every email.
func UnsubscribeURL(siteURL, tok string) string {
	base := strings.TrimRight(strings.TrimSpace(siteURL), "/")
	return base + "/unsubscribe?token=" + url.QueryEscape(tok)
}
