package util

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailRegistered  = errors.New("email already registered")
	ErrPermissionDenied = errors.New("permission denied")

	ErrPuzzleNotFound    = errors.New("puzzle not found")
	ErrPuzzleSolved      = errors.New("puzzle already solved")
	ErrNoAnswers         = errors.New("keyword puzzle needs at least one accepted answer")
	ErrTooManyAnswers    = errors.New("too many accepted answers")
	ErrImageTooLarge     = errors.New("image exceeds the size limit")
	ErrEditLocked        = errors.New("solved puzzles can no longer be edited")
	ErrMissingImage      = errors.New("puzzle image is required")
	ErrInvalidCredential = errors.New("invalid email or password")
)
