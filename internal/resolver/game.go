package resolver

import (
	"strings"

	"github.com/jason-s-yu/stakettt/internal/models"
)

// startedStates are the state/status values that mean the match is underway.
var startedStates = map[string]bool{
	"active":      true,
	"playing":     true,
	"started":     true,
	"in_progress": true,
}

// startedCode is the numeric state the Move module uses for a running game.
const startedCode = 1

// LooksLikeGame requires a board array (board or cells), a turn (turn or current_turn)
// and players (both x and o, or a players array of at least two entries).
func LooksLikeGame(fields map[string]any) bool {
	if fields == nil {
		return false
	}
	if _, ok := firstPresent(fields, "board", "cells").([]any); !ok {
		return false
	}
	if firstPresent(fields, "turn", "current_turn") == nil {
		return false
	}
	if fields["x"] != nil && fields["o"] != nil {
		return true
	}
	players, ok := fields["players"].([]any)
	return ok && len(players) >= 2
}

// OpponentJoined reports whether the second player slot (player2 or players[1]) is filled
// with something other than an empty value or the zero address.
func OpponentJoined(fields map[string]any) bool {
	if fields == nil {
		return false
	}
	if occupied(fields["player2"]) {
		return true
	}
	if players, ok := fields["players"].([]any); ok && len(players) >= 2 {
		return occupied(players[1])
	}
	return false
}

// HasStarted reports whether state or status holds a started sentinel.
func HasStarted(fields map[string]any) bool {
	if fields == nil {
		return false
	}
	for _, k := range []string{"state", "status"} {
		v, ok := fields[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			s = strings.ToLower(strings.TrimSpace(s))
			if startedStates[s] || s == "1" {
				return true
			}
			continue
		}
		if n, ok := numberValue(v); ok && n == startedCode {
			return true
		}
	}
	return false
}

func occupied(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		s := strings.TrimSpace(x)
		return s != "" && !IsZeroAddress(s)
	case bool:
		return x
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	if n, ok := numberValue(v); ok {
		return n != 0
	}
	return true
}

// GameViewOf extracts board, turn and players from a game or control object's fields.
// Board cells shaped like {"value": v} are unwrapped.
func GameViewOf(id string, fields map[string]any) models.GameView {
	view := models.GameView{ID: id}
	if fields == nil {
		return view
	}

	if board, ok := fields["board"].([]any); ok {
		view.Board = make([]any, len(board))
		for i, c := range board {
			if m, ok := c.(map[string]any); ok {
				if inner, ok := m["value"]; ok {
					view.Board[i] = inner
					continue
				}
			}
			view.Board[i] = c
		}
	} else if cells, ok := fields["cells"].([]any); ok {
		view.Board = cells
	}

	view.Turn = firstPresent(fields, "turn", "current_turn")

	players, _ := fields["players"].([]any)
	playerAt := func(i int) any {
		if i < len(players) {
			return players[i]
		}
		return nil
	}
	view.Players[0] = firstNonNil(fields["x"], fields["player1"], playerAt(0))
	view.Players[1] = firstNonNil(fields["o"], fields["player2"], playerAt(1))
	return view
}

func firstNonNil(vals ...any) any {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
