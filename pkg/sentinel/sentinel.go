package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// ErrNotFound states that an entity does not exist in a store; it is a fact,
// not a fault. For validation errors use pkg/domain-errors.
var ErrNotFound = errors.New("not found")
