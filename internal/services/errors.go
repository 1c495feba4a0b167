package services

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrAlreadyExists       = errors.New("username already taken")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotFound            = errors.New("not found")
	ErrInvalidStake        = errors.New("stake must be a positive amount")
	ErrInvalidAmount       = errors.New("amount must be a finite number")
	ErrInvalidResult       = errors.New("result must be one of pending, Win, Lose, Void")
	ErrConflict            = errors.New("concurrent update, please retry")
)
