package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/fundraisely/quizhub/internal/config"
	"github.com/fundraisely/quizhub/internal/entitlements"
	"github.com/fundraisely/quizhub/internal/questionbank"
	"github.com/fundraisely/quizhub/internal/quiz"
)

const (
	RoleHost   = "host"
	RoleAdmin  = "admin"
	RolePlayer = "player"
)

type ConnCtx struct {
	RoomID string
	UserID string
	Role   string
}

// Server is the realtime event surface. Inbound events mutate rooms through
// the core operations and fan a fresh snapshot out to the room afterwards.
type Server struct {
	Registry *quiz.Registry
	Extras   *quiz.ExtrasEngine
	Bank     *questionbank.Bank

	ent    *entitlements.Client
	config config.Config

	io *socketio.Server

	mu      sync.Mutex
	conns   map[string]socketio.Conn            // socketID -> Conn
	members map[string]map[string]socketio.Conn // roomID -> socketID -> Conn
}

func New(registry *quiz.Registry, bank *questionbank.Bank, ent *entitlements.Client, cfg config.Config) *Server {
	srv := &Server{
		Registry: registry,
		Bank:     bank,
		ent:      ent,
		config:   cfg,
		conns:    make(map[string]socketio.Conn),
		members:  make(map[string]map[string]socketio.Conn),
	}
	srv.Extras = quiz.NewExtrasEngine(registry, srv)
	return srv
}

// Mount attaches the Socket.IO server with all handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.io = io

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	// quiz:create
	io.OnEvent("/", "quiz:create", func(s socketio.Conn, payload struct {
		RoomID string          `json:"roomId"`
		HostID string          `json:"hostId"`
		Config quiz.RoomConfig `json:"config"`
	}) map[string]any {
		caps := srv.fetchCaps(payload.HostID)
		if !srv.Registry.Create(payload.RoomID, payload.HostID, payload.Config, caps) {
			return srv.err(s, "room_create_failed", "Room already active or config invalid")
		}
		srv.Registry.UpdateHostSocketID(payload.RoomID, s.ID())
		s.SetContext(&ConnCtx{RoomID: payload.RoomID, UserID: payload.HostID, Role: RoleHost})
		s.Join(payload.RoomID)
		srv.addMember(payload.RoomID, s)
		log.Info().Str("sid", s.ID()).Str("roomId", payload.RoomID).Msg("quiz:create")
		srv.emitRoomState(payload.RoomID)
		return map[string]any{"roomId": payload.RoomID, "ok": true}
	})

	// quiz:join
	io.OnEvent("/", "quiz:join", func(s socketio.Conn, payload struct {
		RoomID string      `json:"roomId"`
		Role   string      `json:"role"`
		User   quiz.Player `json:"user"`
	}) map[string]any {
		room, err := srv.Registry.Get(payload.RoomID)
		if err != nil {
			return srv.err(s, "room_not_found", "Room not found")
		}

		switch payload.Role {
		case RoleHost:
			payload.User.ID = room.HostID
			srv.Registry.UpdateHostSocketID(payload.RoomID, s.ID())
		case RoleAdmin:
			if payload.User.ID == "" {
				payload.User.ID = uuid.NewString()
			}
			room.AddAdmin(quiz.Admin{ID: payload.User.ID, Name: payload.User.Name, SocketID: s.ID()})
		default:
			payload.Role = RolePlayer
			if payload.User.ID == "" {
				payload.User.ID = uuid.NewString()
			}
			summary := room.Summary()
			if !room.HasPlayer(payload.User.ID) && summary.TotalPlayers >= summary.Caps.MaxPlayers {
				return srv.err(s, "room_full", "Room is at its player limit")
			}
			payload.User.SocketID = s.ID()
			room.UpsertPlayer(payload.User)
			playing := quiz.SessionPlaying
			inPlay := true
			room.UpdateSession(payload.User.ID, quiz.SessionUpdate{Status: &playing, InPlayRoute: &inPlay})
		}

		s.SetContext(&ConnCtx{RoomID: payload.RoomID, UserID: payload.User.ID, Role: payload.Role})
		s.Join(payload.RoomID)
		srv.addMember(payload.RoomID, s)
		log.Info().Str("sid", s.ID()).Str("roomId", payload.RoomID).Str("userId", payload.User.ID).Str("role", payload.Role).Msg("quiz:join")
		srv.emitRoomState(payload.RoomID)
		return map[string]any{"userId": payload.User.ID, "role": payload.Role}
	})

	// quiz:rejoin (session recovery after a transport drop)
	io.OnEvent("/", "quiz:rejoin", func(s socketio.Conn, payload struct {
		RoomID string `json:"roomId"`
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}) map[string]any {
		room, err := srv.Registry.Get(payload.RoomID)
		if err != nil {
			return srv.err(s, "room_not_found", "Room not found")
		}

		switch payload.Role {
		case RoleHost:
			if !srv.Registry.UpdateHostSocketID(payload.RoomID, s.ID()) {
				return srv.err(s, "room_not_found", "Room not found")
			}
		case RoleAdmin:
			if !srv.Registry.UpdateAdminSocketID(payload.RoomID, payload.UserID, s.ID()) {
				return srv.err(s, "admin_not_found", "Admin not found")
			}
		default:
			payload.Role = RolePlayer
			if !room.IsSessionActive(payload.UserID) {
				return srv.err(s, "session_expired", "No active session to rejoin")
			}
			if !srv.Registry.UpdatePlayerSocketID(payload.RoomID, payload.UserID, s.ID()) {
				return srv.err(s, "player_not_found", "Player not found")
			}
			playing := quiz.SessionPlaying
			inPlay := true
			room.UpdateSession(payload.UserID, quiz.SessionUpdate{Status: &playing, InPlayRoute: &inPlay})
		}

		s.SetContext(&ConnCtx{RoomID: payload.RoomID, UserID: payload.UserID, Role: payload.Role})
		s.Join(payload.RoomID)
		srv.addMember(payload.RoomID, s)
		log.Info().Str("sid", s.ID()).Str("roomId", payload.RoomID).Str("userId", payload.UserID).Str("role", payload.Role).Msg("quiz:rejoin")
		s.Emit("quiz:state", room.Snapshot())
		srv.emitRoomState(payload.RoomID)
		return map[string]any{"ok": true}
	})

	// quiz:answer
	io.OnEvent("/", "quiz:answer", func(s socketio.Conn, payload struct {
		Answer string `json:"answer"`
	}) map[string]any {
		ctx := s.Context().(*ConnCtx)
		room, err := srv.Registry.Get(ctx.RoomID)
		if err != nil {
			return srv.err(s, "room_not_found", "Room not found")
		}
		result, err := room.SubmitAnswer(ctx.UserID, payload.Answer)
		if err != nil {
			return srv.errFor(s, err)
		}
		playing := quiz.SessionPlaying
		room.UpdateSession(ctx.UserID, quiz.SessionUpdate{Status: &playing})
		// the acknowledgement goes to the submitting player only
		s.Emit("quiz:answerResult", result)
		srv.emitRoomState(ctx.RoomID)
		return map[string]any{"questionId": result.QuestionID, "correct": result.Correct}
	})

	// quiz:useExtra
	io.OnEvent("/", "quiz:useExtra", func(s socketio.Conn, payload struct {
		ExtraID        string `json:"extraId"`
		TargetPlayerID string `json:"targetPlayerId"`
	}) map[string]any {
		ctx := s.Context().(*ConnCtx)
		if err := srv.Extras.Use(ctx.RoomID, ctx.UserID, payload.ExtraID, payload.TargetPlayerID); err != nil {
			return srv.errFor(s, err)
		}
		srv.emitRoomState(ctx.RoomID)
		return map[string]any{"ok": true}
	})

	// quiz:requestState
	io.OnEvent("/", "quiz:requestState", func(s socketio.Conn, payload struct {
		RoomID string `json:"roomId"`
	}) map[string]any {
		roomID := payload.RoomID
		if roomID == "" {
			roomID = s.Context().(*ConnCtx).RoomID
		}
		room, err := srv.Registry.Get(roomID)
		if err != nil {
			return srv.err(s, "room_not_found", "Room not found")
		}
		s.Emit("quiz:state", room.Snapshot())
		return map[string]any{"ok": true}
	})

	// quiz:sessionUpdate (client route reporting for the reconnection window)
	io.OnEvent("/", "quiz:sessionUpdate", func(s socketio.Conn, payload struct {
		Status      *string `json:"status"`
		InPlayRoute *bool   `json:"inPlayRoute"`
	}) map[string]any {
		ctx := s.Context().(*ConnCtx)
		room, err := srv.Registry.Get(ctx.RoomID)
		if err != nil {
			return srv.err(s, "room_not_found", "Room not found")
		}
		room.UpdateSession(ctx.UserID, quiz.SessionUpdate{Status: payload.Status, InPlayRoute: payload.InPlayRoute})
		return map[string]any{"ok": true}
	})

	// quiz:launchRound (host): load this round's questions and start asking
	io.OnEvent("/", "quiz:launchRound", func(s socketio.Conn) map[string]any {
		ctx := s.Context().(*ConnCtx)
		if ctx.Role != RoleHost {
			return srv.err(s, "not_host", "Only the host can launch a round")
		}
		room, err := srv.Registry.Get(ctx.RoomID)
		if err != nil {
			return srv.err(s, "room_not_found", "Room not found")
		}
		summary := room.Summary()
		def := roundDefinitionAt(room, summary.CurrentRound)
		if def == nil {
			return srv.err(s, "no_round", "No round definition for the current round")
		}
		count := room.Config.QuestionsPerRound
		if count <= 0 {
			count = 5
		}
		questions := srv.Bank.ForRound(def.RoundTypeID, questionbank.Filter{Category: def.Category, Difficulty: def.Difficulty}, count)
		if len(questions) == 0 {
			return srv.err(s, "no_questions", "No questions available for this round")
		}
		room.SetQuestionsForCurrentRound(questions)
		room.SetPhase(quiz.PhaseAsking)
		log.Info().Str("roomId", ctx.RoomID).Int("round", summary.CurrentRound).Int("questions", len(questions)).Msg("quiz:launchRound")
		srv.emitRoomState(ctx.RoomID)
		return map[string]any{"questionCount": len(questions)}
	})

	// quiz:nextQuestion (host)
	io.OnEvent("/", "quiz:nextQuestion", func(s socketio.Conn) map[string]any {
		ctx := s.Context().(*ConnCtx)
		if ctx.Role != RoleHost {
			return srv.err(s, "not_host", "Only the host can advance questions")
		}
		room, err := srv.Registry.Get(ctx.RoomID)
		if err != nil {
			return srv.err(s, "room_not_found", "Room not found")
		}
		q := room.AdvanceToNextQuestion()
		if q == nil {
			return map[string]any{"done": true, "endOfRound": room.IsEndOfRound()}
		}
		// never leak answer or clue in the fan-out
		io.BroadcastToRoom("/", ctx.RoomID, "quiz:question", map[string]any{
			"id":       q.ID,
			"text":     q.Text,
			"category": q.Category,
		})
		srv.emitRoomState(ctx.RoomID)
		return map[string]any{"questionId": q.ID, "endOfRound": room.IsEndOfRound()}
	})

	// quiz:nextRound (host)
	io.OnEvent("/", "quiz:nextRound", func(s socketio.Conn) map[string]any {
		ctx := s.Context().(*ConnCtx)
		if ctx.Role != RoleHost {
			return srv.err(s, "not_host", "Only the host can start the next round")
		}
		room, err := srv.Registry.Get(ctx.RoomID)
		if err != nil {
			return srv.err(s, "room_not_found", "Room not found")
		}
		room.StartNextRound()
		room.ResetRoundExtras()
		log.Info().Str("roomId", ctx.RoomID).Int("round", room.GetCurrentRound()).Msg("quiz:nextRound")
		srv.emitRoomState(ctx.RoomID)
		return map[string]any{"currentRound": room.GetCurrentRound()}
	})

	// quiz:setPhase (host)
	io.OnEvent("/", "quiz:setPhase", func(s socketio.Conn, payload struct {
		Phase string `json:"phase"`
	}) map[string]any {
		ctx := s.Context().(*ConnCtx)
		if ctx.Role != RoleHost {
			return srv.err(s, "not_host", "Only the host can change the phase")
		}
		room, err := srv.Registry.Get(ctx.RoomID)
		if err != nil {
			return srv.err(s, "room_not_found", "Room not found")
		}
		phase := quiz.Phase(payload.Phase)
		switch phase {
		case quiz.PhaseWaiting, quiz.PhaseAsking, quiz.PhaseReviewing, quiz.PhaseLeaderboard:
			room.SetPhase(phase)
		case quiz.PhaseLaunched:
			room.MarkCompleted()
		default:
			return srv.err(s, "invalid_phase", "Unknown phase")
		}
		srv.emitRoomState(ctx.RoomID)
		return map[string]any{"phase": payload.Phase}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		ctx, ok := s.Context().(*ConnCtx)
		if ok && ctx.RoomID != "" {
			srv.removeMember(ctx.RoomID, s)
			if ctx.Role == RoleAdmin {
				if room, err := srv.Registry.Get(ctx.RoomID); err == nil {
					room.MarkAdminDisconnected(s.ID())
				}
			}
			// players are not removed here: their reconnection window is
			// governed by the session tracker, not raw transport state
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	return io
}

func (srv *Server) fetchCaps(hostID string) *quiz.RoomCaps {
	if srv.ent == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	caps, err := srv.ent.RoomCaps(ctx, hostID)
	if err != nil {
		log.Warn().Err(err).Str("hostId", hostID).Msg("entitlements lookup failed, using default caps")
		return nil
	}
	return caps
}

func (srv *Server) addMember(roomID string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[roomID] == nil {
		srv.members[roomID] = make(map[string]socketio.Conn)
	}
	srv.members[roomID][c.ID()] = c
	srv.conns[c.ID()] = c
}

func (srv *Server) removeMember(roomID string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[roomID]; m != nil {
		delete(m, c.ID())
	}
	delete(srv.conns, c.ID())
}

func (srv *Server) emitRoomState(roomID string) {
	room, err := srv.Registry.Get(roomID)
	if err != nil {
		return
	}
	srv.io.BroadcastToRoom("/", roomID, "quiz:state", room.Snapshot())
}

// EmitToSocket implements quiz.EffectSink for privately delivered effects.
func (srv *Server) EmitToSocket(socketID, event string, payload any) bool {
	srv.mu.Lock()
	c := srv.conns[socketID]
	srv.mu.Unlock()
	if c == nil {
		return false
	}
	c.Emit(event, payload)
	return true
}

// EmitToRoom implements quiz.EffectSink for broadcast effects.
func (srv *Server) EmitToRoom(roomID, event string, payload any) {
	srv.io.BroadcastToRoom("/", roomID, event, payload)
}

func (srv *Server) err(s socketio.Conn, code, message string) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message})
	return map[string]any{"error": message}
}

func (srv *Server) errFor(s socketio.Conn, err error) map[string]any {
	code := "bad_request"
	switch err {
	case quiz.ErrRoomNotFound:
		code = "room_not_found"
	case quiz.ErrPlayerNotFound, quiz.ErrTargetNotFound:
		code = "player_not_found"
	case quiz.ErrNoCurrentQuestion:
		code = "no_current_question"
	case quiz.ErrUnknownExtra:
		code = "unknown_extra"
	case quiz.ErrExtraNotPurchased:
		code = "extra_not_purchased"
	case quiz.ErrExtraAlreadyUsed:
		code = "extra_already_used"
	case quiz.ErrExtraUsedThisRound:
		code = "extra_used_this_round"
	case quiz.ErrPlayerFrozen:
		code = "player_frozen"
	case quiz.ErrNoClue:
		code = "no_clue"
	case quiz.ErrSocketUnresolved:
		code = "socket_unresolved"
	case quiz.ErrNothingToRestore:
		code = "nothing_to_restore"
	}
	return srv.err(s, code, err.Error())
}

func roundDefinitionAt(room *quiz.Room, round int) *quiz.RoundDefinition {
	defs := room.Config.RoundDefinitions
	ix := round - 1
	if ix < 0 || ix >= len(defs) {
		return nil
	}
	def := defs[ix]
	return &def
}
