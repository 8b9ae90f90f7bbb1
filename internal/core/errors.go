package core

import "errors"

// Error codes for domain errors. They travel to clients as reasonType.
const (
	ErrCodeRoomNotFound  = "room_not_exists"
	ErrCodeAlreadyExists = "already_exists"
	ErrCodeBanned        = "banned"
	ErrCodeUsernameTaken = "username_taken"
	ErrCodeNotAllowed    = "not_allowed"
	ErrCodeServerError   = "server_error"
)

var (
	ErrRoomNotFound  = errors.New("room does not exist")
	ErrAlreadyExists = errors.New("room id already exists")
	ErrBanned        = errors.New("banned from room")
	ErrUsernameTaken = errors.New("username already taken")
	ErrNotAllowed    = errors.New("not allowed")
	ErrNotRegistered = errors.New("connection has no registered user")
	ErrNotInRoom     = errors.New("not in room")
	ErrNotMember     = errors.New("user is not a member of the room")
	ErrRoomRequired  = errors.New("room id is required")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// toCoreError maps a handler error onto the wire taxonomy.
func toCoreError(err error) *CoreError {
	var ce *CoreError
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, ErrRoomNotFound):
		return coreError(ErrCodeRoomNotFound, "Room does not exist.")
	case errors.Is(err, ErrAlreadyExists):
		return coreError(ErrCodeAlreadyExists, "Room ID already exists.")
	case errors.Is(err, ErrBanned):
		return coreError(ErrCodeBanned, "You are banned from this room.")
	case errors.Is(err, ErrUsernameTaken):
		return coreError(ErrCodeUsernameTaken, "Username already taken.")
	case errors.Is(err, ErrNotRegistered):
		return coreError(ErrCodeNotAllowed, "Register a user before entering rooms.")
	case errors.Is(err, ErrNotInRoom):
		return coreError(ErrCodeNotAllowed, "You are not in this room.")
	case errors.Is(err, ErrNotMember):
		return coreError(ErrCodeNotAllowed, "User is not in this room.")
	case errors.Is(err, ErrNotAllowed):
		return coreError(ErrCodeNotAllowed, "Not allowed.")
	case errors.Is(err, ErrRoomRequired):
		return coreError(ErrCodeServerError, "Room is required.")
	default:
		return coreError(ErrCodeServerError, "Server error.")
	}
}
