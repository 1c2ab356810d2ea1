package matchid

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

var ErrMalformedIdentifier = errors.New("malformed match identifier")

const tokenCount = 5

// Parse splits a match key into its parts using rounds to resolve the round ordinal.
func Parse(raw string, rounds RoundTable) (ID, error) {
	value := strings.TrimSpace(raw)
	tokens := strings.Split(value, "_")
	if len(tokens) != tokenCount {
		return ID{}, errors.Wrapf(ErrMalformedIdentifier, "%q has %d tokens, want %d", raw, len(tokens), tokenCount)
	}
	for i, token := range tokens {
		if token == "" {
			return ID{}, errors.Wrapf(ErrMalformedIdentifier, "%q has an empty token at position %d", raw, i)
		}
	}

	season, err := strconv.Atoi(tokens[1])
	if err != nil || season <= 0 {
		return ID{}, errors.Wrapf(ErrMalformedIdentifier, "%q has invalid season %q", raw, tokens[1])
	}

	roundCode := strings.ToUpper(tokens[2])
	round, ok := rounds.Ordinal(season, roundCode)
	if !ok {
		return ID{}, errors.Wrapf(ErrMalformedIdentifier, "%q has unknown round %q", raw, tokens[2])
	}

	return ID{
		Raw:         value,
		Competition: tokens[0],
		Season:      season,
		RoundCode:   roundCode,
		Round:       round,
		HomeTeam:    SplitTeamName(tokens[3]),
		AwayTeam:    SplitTeamName(tokens[4]),
	}, nil
}

// SplitTeamName turns a concatenated token like GoldCoast back into "Gold Coast".
func SplitTeamName(token string) string {
	var b strings.Builder
	b.Grow(len(token) + 4)

	var prev rune
	for i, r := range token {
		if i > 0 && unicode.IsUpper(r) && isWordRune(prev) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
