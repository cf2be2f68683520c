package core

import "github.com/pkg/errors"

// Every failure in this package is "reject and continue": nothing here may
// take down the tick loop.
var (
	ErrBufferOverflow   = errors.New("input buffer overflow")
	ErrEntityNotFound   = errors.New("entity not found")
	ErrNotAuthoritative = errors.New("write from non-authoritative role")
	ErrAlreadySpawned   = errors.New("entity already spawned")
)
