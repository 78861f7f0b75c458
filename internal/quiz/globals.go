package quiz

import "github.com/rs/zerolog/log"

// GlobalExtraOutcome is broadcast to the room after a point-moving extra
// resolves.
type GlobalExtraOutcome struct {
	ExtraID  string `json:"extraId"`
	PlayerID string `json:"playerId"`
	TargetID string `json:"targetId,omitempty"`
	Points   int    `json:"points"`
}

func (e *ExtrasEngine) useGlobal(room *Room, def ExtraDef, playerID, targetID string) error {
	outcome, err := room.UseGlobalExtra(def, playerID, targetID)
	if err != nil {
		return err
	}
	e.sink.EmitToRoom(room.ID, EventExtraUsed, outcome)
	log.Info().Str("roomId", room.ID).Str("playerId", playerID).Str("extra", def.ID).Int("points", outcome.Points).Msg("global extra used")
	return nil
}

// UseGlobalExtra runs the global-scoped family, which keeps its own usage
// ledger with a per-round reset cadence: each global extra is usable once per
// round per player, independent of the round-scoped once-per-game rule.
func (r *Room) UseGlobalExtra(def ExtraDef, playerID, targetID string) (GlobalExtraOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ps := r.PlayerData[playerID]
	if ps == nil {
		return GlobalExtraOutcome{}, ErrPlayerNotFound
	}
	if !ps.Purchases[def.ID] {
		return GlobalExtraOutcome{}, ErrExtraNotPurchased
	}
	if r.globalExtrasUsedThisRound[playerID][def.ID] {
		return GlobalExtraOutcome{}, ErrExtraUsedThisRound
	}

	outcome := GlobalExtraOutcome{ExtraID: def.ID, PlayerID: playerID, TargetID: targetID}

	switch def.ID {
	case ExtraRobPoints:
		target := r.PlayerData[targetID]
		if target == nil {
			return GlobalExtraOutcome{}, ErrTargetNotFound
		}
		stolen := def.Points
		if target.Score < stolen {
			stolen = target.Score
		}
		target.Score -= stolen
		target.CumulativeNegativePoints += stolen
		ps.Score += stolen
		outcome.Points = stolen
	case ExtraRestorePoints:
		outstanding := ps.CumulativeNegativePoints - ps.PointsRestored
		if outstanding <= 0 {
			return GlobalExtraOutcome{}, ErrNothingToRestore
		}
		restored := def.Points
		if outstanding < restored {
			restored = outstanding
		}
		ps.Score += restored
		ps.PointsRestored += restored
		outcome.TargetID = ""
		outcome.Points = restored
	default:
		return GlobalExtraOutcome{}, ErrUnknownExtra
	}

	if r.globalExtrasUsedThisRound[playerID] == nil {
		r.globalExtrasUsedThisRound[playerID] = make(map[string]bool)
	}
	r.globalExtrasUsedThisRound[playerID][def.ID] = true
	return outcome, nil
}
