package domain

import "errors"

var (
	ErrAccountNotFound = errors.New("coin account not found")
	ErrPenaltyNotFound = errors.New("penalty not found")
	ErrVideoNotFound   = errors.New("video not found")
	ErrWheelNotFound   = errors.New("wheel not found")
	ErrSettingNotFound = errors.New("setting not found")
	ErrWrongSecret     = errors.New("wheel secret mismatch")
	ErrAlreadyLinked   = errors.New("discord account already linked")
)
