package main

import (
	"strconv"
	"strings"

	"github.com/park285/Cheese-Cricket-bot/internal/cricket"
)

// command is one parsed chat line.
type command struct {
	Action  cricket.Action
	Payload string
	Help    bool
}

var commandWords = map[string]bool{"cricket": true, "크리켓": true, "cr": true}

var subcommands = map[string]command{
	"cpu":       {Action: cricket.ActionSelectMode, Payload: string(cricket.ModeCPU)},
	"bot":       {Action: cricket.ActionSelectMode, Payload: string(cricket.ModeCPU)},
	"ai":        {Action: cricket.ActionSelectMode, Payload: string(cricket.ModeCPU)},
	"봇":         {Action: cricket.ActionSelectMode, Payload: string(cricket.ModeCPU)},
	"duel":      {Action: cricket.ActionSelectMode, Payload: string(cricket.ModeDuel)},
	"friend":    {Action: cricket.ActionSelectMode, Payload: string(cricket.ModeDuel)},
	"pvp":       {Action: cricket.ActionSelectMode, Payload: string(cricket.ModeDuel)},
	"대결":        {Action: cricket.ActionSelectMode, Payload: string(cricket.ModeDuel)},
	"join":      {Action: cricket.ActionJoin},
	"참가":        {Action: cricket.ActionJoin},
	"heads":     {Action: cricket.ActionCallToss, Payload: string(cricket.CallHeads)},
	"head":      {Action: cricket.ActionCallToss, Payload: string(cricket.CallHeads)},
	"앞":         {Action: cricket.ActionCallToss, Payload: string(cricket.CallHeads)},
	"tails":     {Action: cricket.ActionCallToss, Payload: string(cricket.CallTails)},
	"tail":      {Action: cricket.ActionCallToss, Payload: string(cricket.CallTails)},
	"뒤":         {Action: cricket.ActionCallToss, Payload: string(cricket.CallTails)},
	"bat":       {Action: cricket.ActionChooseStrategy, Payload: string(cricket.StrategyBat)},
	"batting":   {Action: cricket.ActionChooseStrategy, Payload: string(cricket.StrategyBat)},
	"타자":        {Action: cricket.ActionChooseStrategy, Payload: string(cricket.StrategyBat)},
	"bowl":      {Action: cricket.ActionChooseStrategy, Payload: string(cricket.StrategyBowl)},
	"bowling":   {Action: cricket.ActionChooseStrategy, Payload: string(cricket.StrategyBowl)},
	"투수":        {Action: cricket.ActionChooseStrategy, Payload: string(cricket.StrategyBowl)},
	"surrender": {Action: cricket.ActionSurrender},
	"resign":    {Action: cricket.ActionSurrender},
	"기권":        {Action: cricket.ActionSurrender},
	"top":       {Action: cricket.ActionShowLeaderboard},
	"rank":      {Action: cricket.ActionShowLeaderboard},
	"랭킹":        {Action: cricket.ActionShowLeaderboard},
	"help":      {Help: true},
	"도움말":       {Help: true},
}

// parseCommand maps "<prefix>cricket <sub>" to an engine action. ok is false for lines meant for
// someone else. Unknown subcommands fall back to help.
func parseCommand(prefix, text string) (command, bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return command{}, false
	}
	parts := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(parts) == 0 || !commandWords[strings.ToLower(parts[0])] {
		return command{}, false
	}
	if len(parts) == 1 {
		return command{Help: true}, true
	}

	sub := strings.ToLower(parts[1])
	if _, err := strconv.Atoi(sub); err == nil {
		return command{Action: cricket.ActionChooseNumber, Payload: sub}, true
	}
	if cmd, ok := subcommands[sub]; ok {
		return cmd, true
	}
	return command{Help: true}, true
}
