package services

import "errors"

var (
	// ErrNotAuthenticated is returned when a service is called without
	// request identity in the context.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidCredentials covers both unknown email and wrong password
	// so login failures do not reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned on registration with an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrRunInProgress is returned when a generation run is triggered for
	// a desk that already has one running.
	ErrRunInProgress = errors.New("a generation run is already in progress for this desk")

	// ErrEmptyContent is returned when a post is submitted for review
	// before the desk has produced any content.
	ErrEmptyContent = errors.New("desk has no generated content yet")
)
