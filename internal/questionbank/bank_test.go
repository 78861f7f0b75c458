package questionbank

import "testing"

func TestLoad(t *testing.T) {
	bank, err := Load()
	if err != nil {
		t.Fatalf("embedded question data should parse: %v", err)
	}
	types := bank.RoundTypes()
	if len(types) < 2 {
		t.Fatalf("expected at least 2 round types, got %v", types)
	}
}

func TestForRoundReturnsRequestedCount(t *testing.T) {
	bank, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	qs := bank.ForRound("general_trivia", Filter{}, 5)
	if len(qs) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(qs))
	}
	for _, q := range qs {
		if q.ID == "" || q.Text == "" || q.Answer == "" {
			t.Fatalf("incomplete question %+v", q)
		}
	}
}

func TestForRoundFilters(t *testing.T) {
	bank, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	qs := bank.ForRound("general_trivia", Filter{Category: "geography"}, 50)
	if len(qs) == 0 {
		t.Fatal("geography questions should exist")
	}
	for _, q := range qs {
		if q.Category != "geography" {
			t.Fatalf("filter leaked %+v", q)
		}
	}

	qs = bank.ForRound("wipeout", Filter{Category: "science", Difficulty: "medium"}, 50)
	for _, q := range qs {
		if q.Category != "science" || q.Difficulty != "medium" {
			t.Fatalf("combined filter leaked %+v", q)
		}
	}
}

func TestForRoundUnknownType(t *testing.T) {
	bank, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if qs := bank.ForRound("karaoke", Filter{}, 5); qs != nil {
		t.Fatalf("unknown round type should yield nil, got %v", qs)
	}
}

func TestForRoundShortPool(t *testing.T) {
	bank, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// asking for more than exists returns everything that matched
	qs := bank.ForRound("general_trivia", Filter{Difficulty: "hard"}, 50)
	if len(qs) == 0 || len(qs) >= 50 {
		t.Fatalf("expected a small non-empty pool, got %d", len(qs))
	}
}
