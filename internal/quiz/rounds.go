package quiz

import "strings"

// SetQuestionsForCurrentRound replaces the active question sequence. It is
// always scoped to the current round; questions are never cumulative.
func (r *Room) SetQuestionsForCurrentRound(questions []Question) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Questions = questions
}

// AdvanceToNextQuestion moves the index forward and returns the question now
// current, or nil without further mutation when the index would run past the
// loaded sequence. Every successful advance expires freezes against the new
// index.
func (r *Room) AdvanceToNextQuestion() *Question {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.CurrentQuestionIndex + 1
	if next >= len(r.Questions) {
		return nil
	}
	r.CurrentQuestionIndex = next
	r.clearExpiredFreezes(next)
	q := r.Questions[next]
	return &q
}

// IsEndOfRound reports whether the current index sits on the round's last
// question slot.
func (r *Room) IsEndOfRound() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (r.CurrentQuestionIndex+1)%r.questionsPerRound() == 0
}

// StartNextRound advances the round counter and resets question progress and
// phase. Per-round extras bookkeeping is deliberately left alone; callers
// compose that via ResetRoundExtras so round-start side effects stay
// independently testable.
func (r *Room) StartNextRound() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CurrentRound++
	r.CurrentQuestionIndex = -1
	r.Questions = nil
	r.Phase = PhaseWaiting
	r.clearAllFreezes()
}

func (r *Room) SetPhase(p Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Phase = p
}

func (r *Room) GetPhase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Phase
}

func (r *Room) CurrentQuestion() *Question {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentQuestion()
}

func (r *Room) currentQuestion() *Question {
	if r.CurrentQuestionIndex < 0 || r.CurrentQuestionIndex >= len(r.Questions) {
		return nil
	}
	q := r.Questions[r.CurrentQuestionIndex]
	return &q
}

func (r *Room) GetCurrentRound() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.CurrentRound
}

// TotalRounds is the round definition count captured at creation.
func (r *Room) TotalRounds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roundCount
}

func (r *Room) currentRoundDefinition() *RoundDefinition {
	ix := r.CurrentRound - 1
	if ix < 0 || ix >= len(r.Config.RoundDefinitions) {
		return nil
	}
	def := r.Config.RoundDefinitions[ix]
	return &def
}

// AnswerResult acknowledges a submission back to the submitting player.
type AnswerResult struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	Score      int    `json:"score"`
}

// SubmitAnswer records the player's submission against the current question.
// Matching is case-insensitive and whitespace-trimmed. A resubmission for the
// same question id replaces the prior record, and the score always reflects
// only the latest submission per question.
func (r *Room) SubmitAnswer(playerID, answer string) (AnswerResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := r.currentQuestion()
	if q == nil {
		return AnswerResult{}, ErrNoCurrentQuestion
	}
	ps := r.PlayerData[playerID]
	if ps == nil {
		return AnswerResult{}, ErrPlayerNotFound
	}

	correct := answersMatch(answer, q.Answer)
	if prev, ok := ps.Answers[q.ID]; ok && prev.Correct {
		ps.Score--
	}
	if correct {
		ps.Score++
	}
	ps.Answers[q.ID] = AnswerRecord{Submitted: answer, Correct: correct}

	return AnswerResult{QuestionID: q.ID, Correct: correct, Score: ps.Score}, nil
}

func answersMatch(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}
