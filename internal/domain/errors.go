package domain

import "errors"

// Common domain errors that can occur during battle and voting operations.
var (
	// ErrInsufficientModels indicates that fewer than two active models are
	// available, so no battle can be started.
	ErrInsufficientModels = errors.New("insufficient active models")

	// ErrBattleNotFound indicates that the referenced battle does not exist.
	ErrBattleNotFound = errors.New("battle not found")

	// ErrDuplicateVote indicates that the session already recorded an outcome
	// for this battle.
	ErrDuplicateVote = errors.New("duplicate vote")

	// ErrModelNotFound indicates that the referenced model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrInvalidSide indicates an outcome value outside {left, right, tie}.
	ErrInvalidSide = errors.New("invalid vote side")

	// ErrResponsesAlreadySet indicates an attempt to overwrite a battle's
	// responses, which are written exactly once.
	ErrResponsesAlreadySet = errors.New("battle responses already set")
)
