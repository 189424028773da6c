package domain

import "errors"

var (
	// ErrMissingParameter means the caller omitted a required input
	ErrMissingParameter = errors.New("missing parameter")
	// ErrShopNotFound is returned by the shop resolver for any lookup miss or failure
	ErrShopNotFound = errors.New("shop not found")
	// ErrUnauthorized means the shop domain does not resolve to an installed tenant
	ErrUnauthorized = errors.New("shop not authorized")
	// ErrNotFound covers both absent records and records owned by another shop
	ErrNotFound = errors.New("not found")
	// ErrAlreadyJoined means the client is already a participant of the campaign
	ErrAlreadyJoined = errors.New("already joined this campaign")
	// ErrOAuthExchangeFailed means the provider refused the authorization code
	ErrOAuthExchangeFailed = errors.New("oauth exchange failed")
	// ErrNoMainTheme means the shop has no published theme
	ErrNoMainTheme = errors.New("no main theme")
	// ErrInvalidCallback means the OAuth callback failed signature or state checks
	ErrInvalidCallback = errors.New("invalid oauth callback")
	// ErrPersistence wraps any store failure surfaced to callers
	ErrPersistence = errors.New("persistence error")
)
