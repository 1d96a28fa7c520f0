package sortlast

import "github.com/pkg/errors"

// ErrNotParticipating is returned by ComposeTile when the caller
// neither contributes to nor is seated in the requested tile's
// compose-group; there is nothing for it to do.
var ErrNotParticipating = errors.New("sortlast: process does not participate in this tile")
