package quiz

// RoomSummary is the phase/round digest pushed to every subscriber after a
// mutation.
type RoomSummary struct {
	RoomID        string   `json:"roomId"`
	CurrentRound  int      `json:"currentRound"`
	TotalRounds   int      `json:"totalRounds"`
	RoundTypeID   string   `json:"roundTypeId,omitempty"`
	RoundTypeName string   `json:"roundTypeName,omitempty"`
	TotalPlayers  int      `json:"totalPlayers"`
	Phase         Phase    `json:"phase"`
	Caps          RoomCaps `json:"caps"`
}

// PlayerSnapshot is the externally visible slice of a roster entry plus its
// game state.
type PlayerSnapshot struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Score     int             `json:"score"`
	Frozen    bool            `json:"frozen"`
	Connected bool            `json:"connected"`
	Extras    map[string]bool `json:"extrasUsedThisRound"`
}

type AdminSnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomStateSnapshot is the full fan-out payload: config, roster and summary
// composed under one lock so subscribers always observe a consistent view.
type RoomStateSnapshot struct {
	Config  RoomConfig       `json:"config"`
	Players []PlayerSnapshot `json:"players"`
	Admins  []AdminSnapshot  `json:"admins"`
	Summary RoomSummary      `json:"summary"`
}

func (r *Room) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary()
}

func (r *Room) summary() RoomSummary {
	s := RoomSummary{
		RoomID:       r.ID,
		CurrentRound: r.CurrentRound,
		TotalRounds:  r.roundCount,
		TotalPlayers: len(r.Players),
		Phase:        r.Phase,
		Caps:         r.Caps,
	}
	if def := r.currentRoundDefinition(); def != nil {
		s.RoundTypeID = def.RoundTypeID
		s.RoundTypeName = def.RoundTypeName
	}
	return s
}

func (r *Room) Snapshot() RoomStateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := RoomStateSnapshot{
		Config:  r.Config,
		Players: make([]PlayerSnapshot, 0, len(r.Players)),
		Admins:  make([]AdminSnapshot, 0, len(r.Admins)),
		Summary: r.summary(),
	}
	for _, p := range r.Players {
		ps := r.PlayerData[p.ID]
		entry := PlayerSnapshot{ID: p.ID, Name: p.Name, Connected: p.SocketID != ""}
		if ps != nil {
			entry.Score = ps.Score
			entry.Frozen = ps.FrozenNextQuestion
			entry.Extras = make(map[string]bool, len(ps.UsedExtrasThisRound))
			for extra, used := range ps.UsedExtrasThisRound {
				entry.Extras[extra] = used
			}
		}
		snap.Players = append(snap.Players, entry)
	}
	for _, a := range r.Admins {
		snap.Admins = append(snap.Admins, AdminSnapshot{ID: a.ID, Name: a.Name})
	}
	return snap
}
