package quiz

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Registry owns every live Room in the process. It is an injectable store so
// tests can run isolated instances side by side.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room), now: time.Now}
}

// Create registers a room for roomID. It fails closed -- returning false with
// no mutation -- when the config carries no round definitions, or when an
// existing room for the same id is active (has players or left the waiting
// phase). An inactive leftover room is silently replaced.
func (g *Registry) Create(roomID, hostID string, cfg RoomConfig, caps *RoomCaps) bool {
	if roomID == "" || len(cfg.RoundDefinitions) == 0 {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if existing := g.rooms[roomID]; existing != nil {
		existing.mu.Lock()
		active := len(existing.Players) > 0 || existing.Phase != PhaseWaiting
		existing.mu.Unlock()
		if active {
			log.Warn().Str("roomId", roomID).Msg("refusing to replace active room")
			return false
		}
	}

	roomCaps := DefaultCaps()
	if caps != nil {
		roomCaps = *caps
	}

	g.rooms[roomID] = &Room{
		ID:                        roomID,
		HostID:                    hostID,
		Config:                    cfg,
		Caps:                      roomCaps,
		Phase:                     PhaseWaiting,
		CurrentRound:              1,
		CurrentQuestionIndex:      -1,
		PlayerData:                make(map[string]*PlayerState),
		PlayerSessions:            make(map[string]*SessionState),
		globalExtrasUsedThisRound: make(map[string]map[string]bool),
		CreatedAt:                 g.now(),
		roundCount:                len(cfg.RoundDefinitions),
		now:                       g.now,
	}
	log.Info().Str("roomId", roomID).Str("hostId", hostID).Int("rounds", len(cfg.RoundDefinitions)).Msg("room created")
	return true
}

func (g *Registry) Get(roomID string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r := g.rooms[roomID]
	if r == nil {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

func (g *Registry) Remove(roomID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rooms[roomID] == nil {
		return false
	}
	delete(g.rooms, roomID)
	log.Info().Str("roomId", roomID).Msg("room removed")
	return true
}

// RoomListing is one entry of the registry enumeration.
type RoomListing struct {
	RoomID      string `json:"roomId"`
	HostID      string `json:"hostId"`
	PlayerCount int    `json:"playerCount"`
	AdminCount  int    `json:"adminCount"`
	Started     bool   `json:"started"`
}

func (g *Registry) List() []RoomListing {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]RoomListing, 0, len(g.rooms))
	for _, r := range g.rooms {
		r.mu.Lock()
		out = append(out, RoomListing{
			RoomID:      r.ID,
			HostID:      r.HostID,
			PlayerCount: len(r.Players),
			AdminCount:  len(r.Admins),
			Started:     r.CurrentRound > 1 || r.CurrentQuestionIndex >= 0,
		})
		r.mu.Unlock()
	}
	return out
}

// UpdateHostSocketID rebinds the host transport identity. False if the room
// is absent; it never creates anything.
func (g *Registry) UpdateHostSocketID(roomID, socketID string) bool {
	r, err := g.Get(roomID)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.HostSocketID = socketID
	return true
}

func (g *Registry) UpdateAdminSocketID(roomID, adminID, socketID string) bool {
	r, err := g.Get(roomID)
	if err != nil {
		return false
	}
	return r.RebindAdminSocket(adminID, socketID)
}

func (g *Registry) UpdatePlayerSocketID(roomID, playerID, socketID string) bool {
	r, err := g.Get(roomID)
	if err != nil {
		return false
	}
	return r.RebindPlayerSocket(playerID, socketID)
}

// StartSweeper runs the background cleanup loop until ctx is cancelled:
// admin removals whose grace elapsed without a socket rebind, and expired
// disconnected sessions. Reconnects cancel removal purely by state.
func (g *Registry) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.sweep()
			}
		}
	}()
}

func (g *Registry) sweep() {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	for _, r := range rooms {
		if removed := r.RemoveStaleAdmins(); len(removed) > 0 {
			log.Info().Str("roomId", r.ID).Strs("adminIds", removed).Msg("removed disconnected admins")
		}
		r.CleanExpiredSessions()
	}
}
