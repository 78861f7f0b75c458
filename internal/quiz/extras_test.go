package quiz

import "testing"

type sinkEmit struct {
	SocketID string
	RoomID   string
	Event    string
	Payload  any
}

// fakeSink records emits; FailSockets makes private delivery report failure.
type fakeSink struct {
	FailSockets bool
	ToSocket    []sinkEmit
	ToRoom      []sinkEmit
}

func (f *fakeSink) EmitToSocket(socketID, event string, payload any) bool {
	if f.FailSockets {
		return false
	}
	f.ToSocket = append(f.ToSocket, sinkEmit{SocketID: socketID, Event: event, Payload: payload})
	return true
}

func (f *fakeSink) EmitToRoom(roomID, event string, payload any) {
	f.ToRoom = append(f.ToRoom, sinkEmit{RoomID: roomID, Event: event, Payload: payload})
}

func setupExtrasRoom(t *testing.T) (*Registry, *Room, *fakeSink, *ExtrasEngine) {
	t.Helper()
	g := NewRegistry()
	g.Create("R1", "host-1", testConfig(), nil)
	room := mustRoom(t, g, "R1")
	room.UpsertPlayer(Player{ID: "p1", Name: "Alice", SocketID: "sock-1",
		PurchasedExtras: []string{ExtraBuyHint, ExtraFreezeOutTeam, ExtraRobPoints, ExtraRestorePoints}})
	room.UpsertPlayer(Player{ID: "p2", Name: "Bob", SocketID: "sock-2"})
	room.SetQuestionsForCurrentRound(twoQuestions())
	room.AdvanceToNextQuestion()
	sink := &fakeSink{}
	return g, room, sink, NewExtrasEngine(g, sink)
}

func TestUseExtraValidation(t *testing.T) {
	_, _, _, engine := setupExtrasRoom(t)

	if err := engine.Use("missing", "p1", ExtraBuyHint, ""); err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if err := engine.Use("R1", "ghost", ExtraBuyHint, ""); err != ErrPlayerNotFound {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
	if err := engine.Use("R1", "p1", "teleport", ""); err != ErrUnknownExtra {
		t.Fatalf("expected ErrUnknownExtra, got %v", err)
	}
	if err := engine.Use("R1", "p2", ExtraBuyHint, ""); err != ErrExtraNotPurchased {
		t.Fatalf("expected ErrExtraNotPurchased, got %v", err)
	}
}

func TestBuyHintDeliversClue(t *testing.T) {
	_, room, sink, engine := setupExtrasRoom(t)

	if err := engine.Use("R1", "p1", ExtraBuyHint, ""); err != nil {
		t.Fatalf("buyHint should succeed: %v", err)
	}
	if len(sink.ToSocket) != 1 {
		t.Fatalf("clue must go to exactly one socket, got %d emits", len(sink.ToSocket))
	}
	if sink.ToSocket[0].SocketID != "sock-1" || sink.ToSocket[0].Event != EventClue {
		t.Fatalf("clue must reach the acting player's socket, got %+v", sink.ToSocket[0])
	}
	ps := room.PlayerData["p1"]
	if !ps.UsedExtras[ExtraBuyHint] || !ps.UsedExtrasThisRound[ExtraBuyHint] {
		t.Fatal("successful use must keep both usage flags set")
	}
}

func TestRoundExtraIsOncePerGame(t *testing.T) {
	_, room, _, engine := setupExtrasRoom(t)

	if err := engine.Use("R1", "p1", ExtraBuyHint, ""); err != nil {
		t.Fatalf("first use should succeed: %v", err)
	}
	if err := engine.Use("R1", "p1", ExtraBuyHint, ""); err != ErrExtraAlreadyUsed {
		t.Fatalf("second use must reject with already-used, got %v", err)
	}

	// the per-round reset must not revive the once-per-game ledger
	room.StartNextRound()
	room.ResetRoundExtras()
	if room.PlayerData["p1"].UsedExtrasThisRound[ExtraBuyHint] {
		t.Fatal("per-round flag should reset")
	}
	if !room.PlayerData["p1"].UsedExtras[ExtraBuyHint] {
		t.Fatal("once-per-game ledger must survive the round reset")
	}
	room.SetQuestionsForCurrentRound(twoQuestions())
	room.AdvanceToNextQuestion()
	if err := engine.Use("R1", "p1", ExtraBuyHint, ""); err != ErrExtraAlreadyUsed {
		t.Fatalf("round-scoped extras are once per game, got %v", err)
	}
}

func TestFailedEffectRollsBackUsage(t *testing.T) {
	_, room, sink, engine := setupExtrasRoom(t)
	sink.FailSockets = true

	if err := engine.Use("R1", "p1", ExtraBuyHint, ""); err != ErrSocketUnresolved {
		t.Fatalf("expected ErrSocketUnresolved, got %v", err)
	}
	ps := room.PlayerData["p1"]
	if ps.UsedExtras[ExtraBuyHint] || ps.UsedExtrasThisRound[ExtraBuyHint] {
		t.Fatal("a failed effect must roll back both usage flags")
	}

	// the right survives for a later successful attempt
	sink.FailSockets = false
	if err := engine.Use("R1", "p1", ExtraBuyHint, ""); err != nil {
		t.Fatalf("retry after rollback should succeed: %v", err)
	}
}

func TestBuyHintRequiresClue(t *testing.T) {
	_, room, _, engine := setupExtrasRoom(t)
	room.AdvanceToNextQuestion() // q2 carries no clue

	if err := engine.Use("R1", "p1", ExtraBuyHint, ""); err != ErrNoClue {
		t.Fatalf("expected ErrNoClue, got %v", err)
	}
	ps := room.PlayerData["p1"]
	if ps.UsedExtras[ExtraBuyHint] {
		t.Fatal("no-clue failure must not consume the extra")
	}
}

func TestFrozenPlayerCannotUseRoundExtras(t *testing.T) {
	_, room, _, engine := setupExtrasRoom(t)
	if err := room.FreezePlayer("p1"); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if err := engine.Use("R1", "p1", ExtraBuyHint, ""); err != ErrPlayerFrozen {
		t.Fatalf("expected ErrPlayerFrozen, got %v", err)
	}
}

func TestFreezeExpiryIsIndexExact(t *testing.T) {
	_, room, _, engine := setupExtrasRoom(t) // index 0 after setup

	if err := engine.Use("R1", "p1", ExtraFreezeOutTeam, "p2"); err != nil {
		t.Fatalf("freeze should succeed: %v", err)
	}
	if !room.IsPlayerFrozen("p2") {
		t.Fatal("p2 frozen at index 0 stays frozen while the index is still 0")
	}
	if room.PlayerData["p2"].FrozenForQuestionIndex != 0 {
		t.Fatalf("freeze should remember the index it was applied at, got %d", room.PlayerData["p2"].FrozenForQuestionIndex)
	}

	room.AdvanceToNextQuestion() // index 1
	if room.IsPlayerFrozen("p2") {
		t.Fatal("advance past the frozen-at index must clear the freeze")
	}

	// a freeze applied at the new index survives the advance that created it
	if err := room.FreezePlayer("p2"); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if room.PlayerData["p2"].FrozenForQuestionIndex != 1 {
		t.Fatalf("expected frozen-at index 1, got %d", room.PlayerData["p2"].FrozenForQuestionIndex)
	}
	if !room.IsPlayerFrozen("p2") {
		t.Fatal("freeze at the current index must not be cleared yet")
	}
}

func TestFreezeTargetMustExist(t *testing.T) {
	_, room, _, engine := setupExtrasRoom(t)
	if err := engine.Use("R1", "p1", ExtraFreezeOutTeam, "ghost"); err != ErrTargetNotFound {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
	if room.PlayerData["p1"].UsedExtras[ExtraFreezeOutTeam] {
		t.Fatal("a failed freeze must not consume the extra")
	}
}

func TestResetRoundExtrasScope(t *testing.T) {
	_, room, _, engine := setupExtrasRoom(t)
	if err := engine.Use("R1", "p1", ExtraBuyHint, ""); err != nil {
		t.Fatalf("use: %v", err)
	}
	if err := room.FreezePlayer("p2"); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	room.ResetRoundExtras()

	p1 := room.PlayerData["p1"]
	if p1.UsedExtrasThisRound[ExtraBuyHint] {
		t.Fatal("per-round usage must be cleared")
	}
	if !p1.UsedExtras[ExtraBuyHint] {
		t.Fatal("once-per-game ledger must never be altered by the round reset")
	}
	if room.IsPlayerFrozen("p2") {
		t.Fatal("all freeze flags must be cleared")
	}

	// idempotent and side-effect-free with nothing active
	room.ResetRoundExtras()
}

func TestRobPoints(t *testing.T) {
	_, room, sink, engine := setupExtrasRoom(t)
	room.PlayerData["p2"].Score = 5

	if err := engine.Use("R1", "p1", ExtraRobPoints, "p2"); err != nil {
		t.Fatalf("robPoints should succeed: %v", err)
	}
	if got := room.PlayerData["p2"].Score; got != 3 {
		t.Fatalf("expected victim at 3, got %d", got)
	}
	if got := room.PlayerData["p2"].CumulativeNegativePoints; got != 2 {
		t.Fatalf("expected 2 cumulative negative points, got %d", got)
	}
	if got := room.PlayerData["p1"].Score; got != 2 {
		t.Fatalf("expected thief at 2, got %d", got)
	}
	if len(sink.ToRoom) != 1 || sink.ToRoom[0].Event != EventExtraUsed {
		t.Fatalf("steal must broadcast to the room, got %+v", sink.ToRoom)
	}

	// once per round for global-scoped extras
	if err := engine.Use("R1", "p1", ExtraRobPoints, "p2"); err != ErrExtraUsedThisRound {
		t.Fatalf("expected ErrExtraUsedThisRound, got %v", err)
	}
	room.ResetRoundExtras()
	if err := engine.Use("R1", "p1", ExtraRobPoints, "p2"); err != nil {
		t.Fatalf("round reset should renew global extras: %v", err)
	}
}

func TestRobPointsNeverGoesNegative(t *testing.T) {
	_, room, _, engine := setupExtrasRoom(t)
	room.PlayerData["p2"].Score = 1

	if err := engine.Use("R1", "p1", ExtraRobPoints, "p2"); err != nil {
		t.Fatalf("robPoints: %v", err)
	}
	if got := room.PlayerData["p2"].Score; got != 0 {
		t.Fatalf("victim score must floor at 0, got %d", got)
	}
	if got := room.PlayerData["p1"].Score; got != 1 {
		t.Fatalf("thief gains only what was taken, got %d", got)
	}
}

func TestRestorePoints(t *testing.T) {
	_, room, _, engine := setupExtrasRoom(t)
	ps := room.PlayerData["p1"]

	if err := engine.Use("R1", "p1", ExtraRestorePoints, ""); err != ErrNothingToRestore {
		t.Fatalf("nothing lost yet, got %v", err)
	}

	ps.CumulativeNegativePoints = 2
	if err := engine.Use("R1", "p1", ExtraRestorePoints, ""); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if ps.Score != 2 || ps.PointsRestored != 2 {
		t.Fatalf("restore caps at the outstanding loss, got score=%d restored=%d", ps.Score, ps.PointsRestored)
	}

	room.ResetRoundExtras()
	if err := engine.Use("R1", "p1", ExtraRestorePoints, ""); err != ErrNothingToRestore {
		t.Fatalf("fully restored players have nothing left to claim, got %v", err)
	}
}
