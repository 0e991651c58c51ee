package service

import (
	"errors"
	"fmt"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/auth"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream service failed")
)

// userError is an error whose message is safe to show to the caller.
type userError struct {
	kind error
	msg  string
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.kind }

func invalidf(format string, args ...any) error {
	return &userError{kind: ErrInvalid, msg: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return &userError{kind: ErrNotFound, msg: what + " not found"}
}

// Actor is the authenticated caller of an owner-scoped operation.
type Actor struct {
	UserID string
	Admin  bool
}

// ActorFromClaims converts token claims into an Actor.
func ActorFromClaims(c *auth.Claims) Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{UserID: c.UserID, Admin: c.Role == models.RoleAdmin}
}

// owns reports whether a may act on a resource owned by ownerID.
func (a Actor) owns(ownerID string) bool {
	return a.Admin || (a.UserID != "" && a.UserID == ownerID)
}
