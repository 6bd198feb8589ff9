package ledger

import "errors"

// Predefined package errors. These carry the stable labels from the error
// taxonomy that every stage (partition, assemble) reports against.
var (
	ErrBadPubkeyString   = errors.New("bad pubkey string")
	ErrBadAccountKeyIndex = errors.New("bad account key index")
)
