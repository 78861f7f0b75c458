package quiz

import "github.com/rs/zerolog/log"

type ExtraScope string

const (
	ExtraScopeRound  ExtraScope = "round"
	ExtraScopeGlobal ExtraScope = "global"
)

const (
	ExtraBuyHint       = "buyHint"
	ExtraFreezeOutTeam = "freezeOutTeam"
	ExtraRestorePoints = "restorePoints"
	ExtraRobPoints     = "robPoints"
)

// Events emitted while resolving extra effects.
const (
	EventClue      = "quiz:clue"
	EventExtraUsed = "quiz:extraUsed"
)

// ExtraDef is one entry of the static extras table. Points only applies to
// the point-moving global extras.
type ExtraDef struct {
	ID     string     `json:"id"`
	Scope  ExtraScope `json:"scope"`
	Points int        `json:"points,omitempty"`
}

// ExtraDefinitions returns the extras table. Dispatch happens on these tagged
// definitions, resolved once at engine construction, never on raw id strings
// scattered through the engine.
func ExtraDefinitions() map[string]ExtraDef {
	return map[string]ExtraDef{
		ExtraBuyHint:       {ID: ExtraBuyHint, Scope: ExtraScopeRound},
		ExtraFreezeOutTeam: {ID: ExtraFreezeOutTeam, Scope: ExtraScopeRound},
		ExtraRestorePoints: {ID: ExtraRestorePoints, Scope: ExtraScopeGlobal, Points: 3},
		ExtraRobPoints:     {ID: ExtraRobPoints, Scope: ExtraScopeGlobal, Points: 2},
	}
}

// EffectSink delivers extra effects to bound transports. EmitToSocket reports
// whether the socket could actually be reached so a failed delivery can void
// the usage.
type EffectSink interface {
	EmitToSocket(socketID, event string, payload any) bool
	EmitToRoom(roomID, event string, payload any)
}

// ExtrasEngine validates and executes purchased fundraising extras against
// rooms held by the registry.
type ExtrasEngine struct {
	registry *Registry
	sink     EffectSink
	defs     map[string]ExtraDef
}

func NewExtrasEngine(registry *Registry, sink EffectSink) *ExtrasEngine {
	return &ExtrasEngine{registry: registry, sink: sink, defs: ExtraDefinitions()}
}

// Use resolves one extra usage end to end. Round-scoped extras go through an
// explicit reserve -> execute -> commit/rollback cycle so a failed effect
// never consumes the player's one-time right.
func (e *ExtrasEngine) Use(roomID, playerID, extraID, targetID string) error {
	room, err := e.registry.Get(roomID)
	if err != nil {
		return err
	}
	def, ok := e.defs[extraID]
	if !ok {
		return ErrUnknownExtra
	}

	if def.Scope == ExtraScopeGlobal {
		return e.useGlobal(room, def, playerID, targetID)
	}

	res, err := room.ReserveRoundExtra(playerID, extraID)
	if err != nil {
		return err
	}
	if err := e.executeRoundScoped(room, def, playerID, targetID); err != nil {
		res.Rollback()
		return err
	}
	res.Commit()
	log.Info().Str("roomId", roomID).Str("playerId", playerID).Str("extra", extraID).Msg("extra used")
	return nil
}

func (e *ExtrasEngine) executeRoundScoped(room *Room, def ExtraDef, playerID, targetID string) error {
	switch def.ID {
	case ExtraBuyHint:
		q := room.CurrentQuestion()
		if q == nil || q.Clue == "" {
			return ErrNoClue
		}
		socketID := room.PlayerSocket(playerID)
		if socketID == "" {
			return ErrSocketUnresolved
		}
		// the clue goes to the acting player's socket only
		if !e.sink.EmitToSocket(socketID, EventClue, map[string]any{
			"questionId": q.ID,
			"clue":       q.Clue,
		}) {
			return ErrSocketUnresolved
		}
		return nil
	case ExtraFreezeOutTeam:
		if err := room.FreezePlayer(targetID); err != nil {
			return err
		}
		e.sink.EmitToRoom(room.ID, EventExtraUsed, map[string]any{
			"extraId":  ExtraFreezeOutTeam,
			"playerId": playerID,
			"targetId": targetID,
		})
		return nil
	default:
		return ErrUnknownExtra
	}
}

// ExtraReservation is the optimistic usage mark taken before a round-scoped
// effect runs. Commit keeps it; Rollback returns the flags to unused so a
// failed attempt never consumes the right.
type ExtraReservation struct {
	room     *Room
	playerID string
	extraID  string
	settled  bool
}

// ReserveRoundExtra validates the round-scoped usage rules and optimistically
// marks the extra consumed. Round-scoped extras are once per game: the
// game-lifetime flag decides rejection, the per-round flag exists for
// display and reset only.
func (r *Room) ReserveRoundExtra(playerID, extraID string) (*ExtraReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ps := r.PlayerData[playerID]
	if ps == nil {
		return nil, ErrPlayerNotFound
	}
	if ps.FrozenNextQuestion {
		return nil, ErrPlayerFrozen
	}
	if !ps.Purchases[extraID] {
		return nil, ErrExtraNotPurchased
	}
	if ps.UsedExtras[extraID] {
		return nil, ErrExtraAlreadyUsed
	}

	ps.UsedExtras[extraID] = true
	ps.UsedExtrasThisRound[extraID] = true
	return &ExtraReservation{room: r, playerID: playerID, extraID: extraID}, nil
}

func (res *ExtraReservation) Commit() {
	res.settled = true
}

func (res *ExtraReservation) Rollback() {
	if res.settled {
		return
	}
	res.settled = true

	res.room.mu.Lock()
	defer res.room.mu.Unlock()
	if ps := res.room.PlayerData[res.playerID]; ps != nil {
		ps.UsedExtras[res.extraID] = false
		ps.UsedExtrasThisRound[res.extraID] = false
	}
}

// ResetRoundExtras is the explicit round-boundary reset: all per-round usage
// flags back to false, the global family's own per-round ledger wiped, every
// freeze cleared. Never touches UsedExtras, the once-per-game ledger. Calling
// it with nothing active is a no-op.
func (r *Room) ResetRoundExtras() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ps := range r.PlayerData {
		for extra := range ps.UsedExtrasThisRound {
			ps.UsedExtrasThisRound[extra] = false
		}
	}
	r.globalExtrasUsedThisRound = make(map[string]map[string]bool)
	r.clearAllFreezes()
}
