package hslog

import "github.com/hslog/hslog-go/pkg/hslog/event"

// resolvePlayer maps an entity name to a player.
//
// An exact name match wins. Otherwise the opposing player is returned: a
// computer opponent is first logged under a placeholder name and later under
// its hero's name, so any unknown name is taken to be the opposing side.
// When the opposing player is not known yet either, resolvePlayer returns
// an *IdentityError and the caller must drop whatever needed the player.
func (s *sessionState) resolvePlayer(name, op string) (*event.Player, error) {
	if p, ok := s.byName[name]; ok {
		return p, nil
	}
	if s.opposing != nil {
		return s.opposing, nil
	}
	return nil, &IdentityError{Op: op, Name: name}
}
