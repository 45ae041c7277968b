package service

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrNoCardsAvailable = errors.New("no cards available")
	ErrGameEnded        = errors.New("game has ended")
	ErrQuestionNotFound = errors.New("question not found or cannot be deleted")
	ErrInvalidInput     = errors.New("invalid input")
)
