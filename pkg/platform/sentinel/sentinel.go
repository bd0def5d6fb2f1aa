package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and gateway
// adapters return these (optionally wrapped) so services can translate
// them into coded domain errors.
//
// These represent factual states about resources, not rule violations:
// - ErrNotFound: entity does not exist in the store
// - ErrDuplicateName: unique-name constraint would be violated
// - ErrUnavailable: external resource refused or unreachable
//
// For validation failures use pkg/domainerrors directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("duplicate name")
	ErrUnavailable   = errors.New("unavailable")
)
