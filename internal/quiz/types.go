package quiz

import (
	"sync"
	"time"
)

type Phase string

const (
	PhaseWaiting     Phase = "waiting"
	PhaseAsking      Phase = "asking"
	PhaseReviewing   Phase = "reviewing"
	PhaseLeaderboard Phase = "leaderboard"
	PhaseLaunched    Phase = "launched"
)

const defaultQuestionsPerRound = 5

// RoundDefinition describes one round of the event as configured by the host.
type RoundDefinition struct {
	RoundTypeID   string `json:"roundTypeId"`
	RoundTypeName string `json:"roundTypeName"`
	Category      string `json:"category,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
}

// RoomConfig is the host-supplied event configuration. Fundraising metadata is
// carried through untouched for snapshots; the core only interprets the round
// definitions, questions-per-round and the per-extra price/enable flags.
type RoomConfig struct {
	EventName          string             `json:"eventName,omitempty"`
	RoundDefinitions   []RoundDefinition  `json:"roundDefinitions"`
	QuestionsPerRound  int                `json:"questionsPerRound,omitempty"`
	FundraisingOptions map[string]bool    `json:"fundraisingOptions,omitempty"`
	FundraisingPrices  map[string]float64 `json:"fundraisingPrices,omitempty"`
	Currency           string             `json:"currency,omitempty"`
	PaymentMeta        map[string]any     `json:"paymentMeta,omitempty"`
}

// RoomCaps are plan limits supplied by the entitlements service at creation
// time. The core never computes them, it only defaults them when absent.
type RoomCaps struct {
	MaxPlayers        int      `json:"maxPlayers"`
	MaxRounds         int      `json:"maxRounds"`
	RoundTypesAllowed []string `json:"roundTypesAllowed"`
	ExtrasAllowed     []string `json:"extrasAllowed"`
}

// DefaultCaps returns the limits applied when no entitlements check ran.
func DefaultCaps() RoomCaps {
	return RoomCaps{
		MaxPlayers:        20,
		MaxRounds:         8,
		RoundTypesAllowed: []string{"general_trivia", "wipeout"},
		ExtrasAllowed:     []string{ExtraBuyHint, ExtraFreezeOutTeam, ExtraRestorePoints, ExtraRobPoints},
	}
}

type Question struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Answer     string `json:"answer"`
	Clue       string `json:"clue,omitempty"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// Player is a roster entry. PurchasedExtras is only read on first insertion,
// when it seeds the player's PlayerState.
type Player struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	SocketID        string   `json:"-"`
	PurchasedExtras []string `json:"purchasedExtras,omitempty"`
}

type Admin struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SocketID string `json:"-"`

	// set while a disconnect grace period is pending
	disconnectedSocketID string
	removeAfter          time.Time
}

// AnswerRecord is the latest submission a player made for one question.
type AnswerRecord struct {
	Submitted string `json:"submitted"`
	Correct   bool   `json:"correct"`
}

// PlayerState is the per-player game state within a room.
type PlayerState struct {
	Status                   string                  `json:"status"`
	Score                    int                     `json:"score"`
	Answers                  map[string]AnswerRecord `json:"answers"`
	Purchases                map[string]bool         `json:"purchases"`
	UsedExtras               map[string]bool         `json:"usedExtras"`
	UsedExtrasThisRound      map[string]bool         `json:"usedExtrasThisRound"`
	FrozenNextQuestion       bool                    `json:"frozenNextQuestion"`
	FrozenForQuestionIndex   int                     `json:"frozenForQuestionIndex"`
	CumulativeNegativePoints int                     `json:"cumulativeNegativePoints"`
	PointsRestored           int                     `json:"pointsRestored"`
}

func newPlayerState(purchased []string) *PlayerState {
	ps := &PlayerState{
		Status:                 "active",
		Answers:                make(map[string]AnswerRecord),
		Purchases:              make(map[string]bool),
		UsedExtras:             make(map[string]bool),
		UsedExtrasThisRound:    make(map[string]bool),
		FrozenForQuestionIndex: -1,
	}
	for _, extra := range purchased {
		ps.Purchases[extra] = true
		ps.UsedExtras[extra] = false
		ps.UsedExtrasThisRound[extra] = false
	}
	return ps
}

const (
	SessionPlaying      = "playing"
	SessionDisconnected = "disconnected"
)

// ReconnectionWindow bounds how long a dropped player counts as "actively in
// game" and may silently rejoin.
const ReconnectionWindow = 45 * time.Second

// AdminRemovalGrace is how long an admin record survives a socket disconnect
// before the sweeper removes it, tolerating a brief double-connect.
const AdminRemovalGrace = 5 * time.Second

// SessionState tracks liveness/route, not transport presence. The roster's
// socket ids remain the source of truth for who is connected.
type SessionState struct {
	Status      string    `json:"status"`
	InPlayRoute bool      `json:"inPlayRoute"`
	LastActive  time.Time `json:"lastActive"`
}

// SessionUpdate is a partial merge into a player's SessionState. Nil fields
// are left untouched.
type SessionUpdate struct {
	Status      *string
	InPlayRoute *bool
}

// Room is one live quiz event. All mutation goes through its methods, each of
// which spans exactly one logical operation under the room mutex.
type Room struct {
	ID           string
	HostID       string
	HostSocketID string
	Config       RoomConfig
	Caps         RoomCaps

	Phase                Phase
	CurrentRound         int // 1-based
	CurrentQuestionIndex int // -1 before the first question
	Questions            []Question

	Players []*Player
	Admins  []*Admin

	PlayerData     map[string]*PlayerState
	PlayerSessions map[string]*SessionState

	// playerID -> extraID -> used, reset every round by ResetRoundExtras
	globalExtrasUsedThisRound map[string]map[string]bool

	CreatedAt   time.Time
	CompletedAt *time.Time

	roundCount int
	now        func() time.Time

	mu sync.Mutex
}

func (r *Room) questionsPerRound() int {
	if r.Config.QuestionsPerRound > 0 {
		return r.Config.QuestionsPerRound
	}
	return defaultQuestionsPerRound
}

func (r *Room) findPlayer(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) findAdmin(id string) *Admin {
	for _, a := range r.Admins {
		if a.ID == id {
			return a
		}
	}
	return nil
}
