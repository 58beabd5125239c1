package service

import "errors"

var (
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
	ErrFeedbackInvalid  = errors.New("feedback requires a name and a rating")
	ErrContactInvalid   = errors.New("contact requires a name, a valid email and a message")
)
