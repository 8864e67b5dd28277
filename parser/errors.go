package parser

import (
	"errors"
	"fmt"
)

// ErrMalformedPlayerRecord matches every MalformedRecordError.
var ErrMalformedPlayerRecord = errors.New("malformed player record")

// MalformedRecordError reports a required field missing from a player fragment.
type MalformedRecordError struct {
	Fragment string
	Field    string
	PlayerID string
}

func (e *MalformedRecordError) Error() string {
	player := e.PlayerID
	if player == "" {
		player = "unknown"
	}
	return fmt.Sprintf("%s: %s fragment of player %s is missing required field %q",
		ErrMalformedPlayerRecord, e.Fragment, player, e.Field)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedPlayerRecord
}

// withPlayer fills in the player id on a MalformedRecordError if it lacks one.
func withPlayer(err error, playerID string) error {
	var malformed *MalformedRecordError
	if errors.As(err, &malformed) && malformed.PlayerID == "" {
		malformed.PlayerID = playerID
	}
	return err
}
