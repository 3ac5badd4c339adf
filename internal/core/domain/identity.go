package domain

import "errors"

var ErrNotAuthenticated = errors.New("no authenticated identity")
var ErrNotConnected = errors.New("broker not connected")
var ErrNoPositionFix = errors.New("no position fix available")
var ErrMalformedMessage = errors.New("malformed presence message")
var ErrProfileNotFound = errors.New("profile not found")

// Identity is the local user as resolved at session start. It is held for the
// lifetime of the session; only the display name may be refreshed.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Zero reports whether the identity has not been resolved yet.
func (i Identity) Zero() bool {
	return i.UserID == ""
}
