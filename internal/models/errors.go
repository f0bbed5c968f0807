package models

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrNotChatMember      = errors.New("user is not a member of this chat")
	ErrDuplicateRequest   = errors.New("friend request already exists")
	ErrRequestAnswered    = errors.New("friend request already answered")
)
