package quiz

import "github.com/rs/zerolog/log"

// FreezePlayer freezes the target for the question after the one currently
// in play. The index at the moment of freezing is remembered so expiry can
// tell "missed" apart from "not yet due".
func (r *Room) FreezePlayer(targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ps := r.PlayerData[targetID]
	if ps == nil {
		return ErrTargetNotFound
	}
	ps.FrozenNextQuestion = true
	ps.FrozenForQuestionIndex = r.CurrentQuestionIndex
	log.Info().Str("roomId", r.ID).Str("targetId", targetID).Int("atIndex", r.CurrentQuestionIndex).Msg("player frozen")
	return nil
}

// IsPlayerFrozen reports the freeze flag for a player, false for unknowns.
func (r *Room) IsPlayerFrozen(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps := r.PlayerData[playerID]
	return ps != nil && ps.FrozenNextQuestion
}

// clearExpiredFreezes clears freezes whose question has now been missed:
// strictly frozenForQuestionIndex < newIndex. A freeze applied at the current
// index survives the advance that created it. Caller holds the room lock.
func (r *Room) clearExpiredFreezes(newIndex int) {
	for id, ps := range r.PlayerData {
		if ps.FrozenNextQuestion && ps.FrozenForQuestionIndex < newIndex {
			ps.FrozenNextQuestion = false
			ps.FrozenForQuestionIndex = -1
			log.Debug().Str("roomId", r.ID).Str("playerId", id).Int("newIndex", newIndex).Msg("freeze expired")
		}
	}
}

// clearAllFreezes is the unconditional safety reset used at round boundaries.
// Caller holds the room lock.
func (r *Room) clearAllFreezes() {
	for _, ps := range r.PlayerData {
		ps.FrozenNextQuestion = false
		ps.FrozenForQuestionIndex = -1
	}
}
