package errors

import "errors"

var (
	ErrRoomExists = errors.New("room already exists")
	ErrInvalidID  = errors.New("invalid room id")
)
