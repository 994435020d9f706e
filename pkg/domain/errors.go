package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrPathCollision marks a CreateFile step whose path runs into a node of the other kind.
var ErrPathCollision = errors.New("path collides with existing node of a different type")

// ErrEmptyPath marks a CreateFile step whose path has no segments.
var ErrEmptyPath = errors.New("empty file path")

// ErrStepIndex is returned when a step index is outside the project's step list.
var ErrStepIndex = errors.New("step index out of range")

// ErrInvalidPath marks a CreateFile step whose path leaves the tree or holds a backslash.
var ErrInvalidPath = errors.New("invalid file path")
