package questionbank

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/fundraisely/quizhub/internal/quiz"
	"github.com/rs/zerolog/log"
)

//go:embed questions.json
var questionData []byte

// Filter narrows a round's question pool. Empty fields match everything.
type Filter struct {
	Category   string
	Difficulty string
}

// Bank is the static, process-wide question store. It is immutable after
// Load and safe to share read-only across all rooms.
type Bank struct {
	byRoundType map[string][]quiz.Question
}

func Load() (*Bank, error) {
	byRoundType := make(map[string][]quiz.Question)
	if err := json.Unmarshal(questionData, &byRoundType); err != nil {
		return nil, fmt.Errorf("parse embedded question data: %w", err)
	}
	return &Bank{byRoundType: byRoundType}, nil
}

func (b *Bank) RoundTypes() []string {
	out := make([]string, 0, len(b.byRoundType))
	for rt := range b.byRoundType {
		out = append(out, rt)
	}
	return out
}

// ForRound returns up to count questions for the round type after applying
// the filter, in shuffled order. It warns when the filtered pool holds fewer
// questions than requested; an unknown round type yields nil.
func (b *Bank) ForRound(roundTypeID string, f Filter, count int) []quiz.Question {
	pool := b.byRoundType[roundTypeID]
	if pool == nil {
		log.Warn().Str("roundType", roundTypeID).Msg("unknown round type requested from question bank")
		return nil
	}

	filtered := make([]quiz.Question, 0, len(pool))
	for _, q := range pool {
		if f.Category != "" && q.Category != f.Category {
			continue
		}
		if f.Difficulty != "" && q.Difficulty != f.Difficulty {
			continue
		}
		filtered = append(filtered, q)
	}

	if len(filtered) < count {
		log.Warn().
			Str("roundType", roundTypeID).
			Str("category", f.Category).
			Str("difficulty", f.Difficulty).
			Int("available", len(filtered)).
			Int("requested", count).
			Msg("question bank has fewer questions than requested")
	}

	rand.Shuffle(len(filtered), func(i, j int) { filtered[i], filtered[j] = filtered[j], filtered[i] })
	if len(filtered) > count {
		filtered = filtered[:count]
	}
	return filtered
}
