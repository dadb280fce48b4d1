// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the entity already exists or was modified by another request.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates the input failed domain validation.
var ErrValidation = errors.New("validation failed")

// ErrForbidden indicates the authenticated user lacks standing for the action.
var ErrForbidden = errors.New("forbidden")
