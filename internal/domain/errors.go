package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidDate    = errors.New("invalid calendar date")
	ErrSTDPlanExists  = errors.New("room type already has an STD plan")
	ErrPlanCodeExists = errors.New("rate plan code already used for this room type")
)
