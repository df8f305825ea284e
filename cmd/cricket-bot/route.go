package main

import "github.com/park285/Cheese-Cricket-bot/internal/cricket"

// sessionLocator is the registry view routing needs.
type sessionLocator interface {
	Get(sessionID string) *cricket.Match
	DuelsInPlay(playerID string) []string
}

// route picks the session a command acts on. A number sent from a room with no match of its own (a 1:1
// chat with the bot) goes to the sender's duel, when exactly one is taking balls, so the value never
// shows in the shared room. private reports that redirect.
func route(reg sessionLocator, room, actor string, cmd command) (session string, private bool) {
	if cmd.Help || cmd.Action != cricket.ActionChooseNumber || reg.Get(room) != nil {
		return room, false
	}
	if duels := reg.DuelsInPlay(actor); len(duels) == 1 && duels[0] != room {
		return duels[0], true
	}
	return room, false
}
