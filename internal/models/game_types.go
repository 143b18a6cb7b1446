package models

import "fmt"

type GameType uint8

const (
	GameTypeCoinFlip GameType = iota
	GameTypeDiceRoll
	GameTypeSlots
	GameTypeBlackjack
	GameTypeRoulette
	GameTypePoker
	GameTypeLottery
	GameTypeSportsBet
)

var gameTypeNames = [...]string{
	GameTypeCoinFlip:  "coinflip",
	GameTypeDiceRoll:  "diceroll",
	GameTypeSlots:     "slots",
	GameTypeBlackjack: "blackjack",
	GameTypeRoulette:  "roulette",
	GameTypePoker:     "poker",
	GameTypeLottery:   "lottery",
	GameTypeSportsBet: "sportsbet",
}

func (t GameType) Valid() bool {
	return int(t) < len(gameTypeNames)
}

func (t GameType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("gametype(%d)", uint8(t))
	}
	return gameTypeNames[t]
}

func (t GameType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrInvalidGameType
	}
	return []byte(gameTypeNames[t]), nil
}

func (t *GameType) UnmarshalText(text []byte) error {
	parsed, err := ParseGameType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func ParseGameType(s string) (GameType, error) {
	for i, name := range gameTypeNames {
		if name == s {
			return GameType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrInvalidGameType, s)
}

type GameStatus uint8

const (
	GameStatusCreated GameStatus = iota
	GameStatusActive
	GameStatusResolving
	GameStatusResolved
	GameStatusClaimed
	GameStatusCancelled
	GameStatusExpired
)

var gameStatusNames = [...]string{
	GameStatusCreated:   "created",
	GameStatusActive:    "active",
	GameStatusResolving: "resolving",
	GameStatusResolved:  "resolved",
	GameStatusClaimed:   "claimed",
	GameStatusCancelled: "cancelled",
	GameStatusExpired:   "expired",
}

func (s GameStatus) String() string {
	if int(s) >= len(gameStatusNames) {
		return fmt.Sprintf("status(%d)", uint8(s))
	}
	return gameStatusNames[s]
}

// Terminal reports whether no further transition is possible.
func (s GameStatus) Terminal() bool {
	switch s {
	case GameStatusClaimed, GameStatusCancelled, GameStatusExpired:
		return true
	default:
		return false
	}
}

func (s GameStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *GameStatus) UnmarshalText(text []byte) error {
	for i, name := range gameStatusNames {
		if name == string(text) {
			*s = GameStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown game status: %s", text)
}

type TournamentStatus uint8

const (
	TournamentStatusCreated TournamentStatus = iota
	TournamentStatusActive
	TournamentStatusFinished
	TournamentStatusCancelled
)

var tournamentStatusNames = [...]string{
	TournamentStatusCreated:   "created",
	TournamentStatusActive:    "active",
	TournamentStatusFinished:  "finished",
	TournamentStatusCancelled: "cancelled",
}

func (s TournamentStatus) String() string {
	if int(s) >= len(tournamentStatusNames) {
		return fmt.Sprintf("status(%d)", uint8(s))
	}
	return tournamentStatusNames[s]
}

func (s TournamentStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TournamentStatus) UnmarshalText(text []byte) error {
	for i, name := range tournamentStatusNames {
		if name == string(text) {
			*s = TournamentStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tournament status: %s", text)
}
