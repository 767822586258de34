// Package service implements the reservation lifecycle, room management and
// usage statistics on top of the repositories.  Services are plain structs
// built once in main and shared by all requests.
package service

import (
	"errors"

	"github.com/iliyamo/meeting-room-reservation/internal/model"
	"github.com/iliyamo/meeting-room-reservation/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRoomInactive       = errors.New("room is not accepting reservations")
	ErrAlreadyCancelled   = errors.New("reservation is already cancelled")
	ErrCancelWindowClosed = errors.New("reservation can no longer be cancelled")
	ErrDurationTooLong    = errors.New("reservation exceeds the maximum duration")
	ErrNameTaken          = errors.New("room name already in use")
	ErrNoChange           = errors.New("update does not change the reservation")
	ErrStartInPast        = errors.New("reservation must start in the future")
	ErrOutsideHours       = errors.New("reservation is outside booking hours")
	ErrAlreadyStarted     = errors.New("reservation has already started")
	ErrSelfDelete         = errors.New("cannot delete your own account")
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint64
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// mapRepoErr converts repository sentinels into service errors.
func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrNameTaken
	}
	return err
}
