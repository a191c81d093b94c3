package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrManifestNotFound indicates the quiz manifest is missing or unreadable.
	ErrManifestNotFound = errors.New("quiz manifest not found")
	// ErrIdentityPending is returned when voting is attempted before the
	// identity provider has produced a voter id.
	ErrIdentityPending = errors.New("identity not yet established")
	// ErrInvalidVote is returned for vote types other than trust/distrust.
	ErrInvalidVote = errors.New("invalid vote type")
	// ErrVoteConflict is returned when the vote transaction kept losing
	// against concurrent voters and gave up.
	ErrVoteConflict = errors.New("vote transaction conflict")
)
