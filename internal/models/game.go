package models

import "time"

type GameResult struct {
	Outcome          []byte `json:"outcome"`
	Multiplier       uint64 `json:"multiplier"` // basis points, 10000 = 1x
	Payout           uint64 `json:"payout"`
	HouseEdgeTaken   uint64 `json:"house_edge_taken"`
	TreasuryFeeTaken uint64 `json:"treasury_fee_taken"`
}

func (r GameResult) Won() bool {
	return r.Multiplier > 0
}

type ProvableFairData struct {
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed"`
	Nonce          uint64 `json:"nonce"`

	// ServerSeed is revealed after resolution.
	ServerSeed Optional[string] `json:"server_seed"`
}

// Reveal records the server seed. It can be written once.
func (p *ProvableFairData) Reveal(serverSeed string) error {
	if p.ServerSeed.IsSome() {
		return ErrSeedAlreadyUsed
	}
	p.ServerSeed = Some(serverSeed)
	return nil
}

// Game is one wager and its lifecycle. Terminal games are kept for audit.
type Game struct {
	ID           string               `json:"id"`
	Player       string               `json:"player"`
	Casino       string               `json:"casino"`
	GameType     GameType             `json:"game_type"`
	BetAmount    uint64               `json:"bet_amount"`
	Prediction   []byte               `json:"prediction"`
	Result       Optional[GameResult] `json:"result"`
	ProvableFair ProvableFairData     `json:"provable_fair"`
	Status       GameStatus           `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	ResolvedAt   Optional[time.Time]  `json:"resolved_at"`
	ClaimedAt    Optional[time.Time]  `json:"claimed_at"`
	ExpiresAt    time.Time            `json:"expires_at"`
	SessionID    uint64               `json:"session_id"`
}

func (g *Game) IsExpired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

// CanBeResolved holds for a Created or Active game that has not expired.
func (g *Game) CanBeResolved(now time.Time) bool {
	switch g.Status {
	case GameStatusCreated, GameStatusActive:
		return !g.IsExpired(now)
	default:
		return false
	}
}

func (g *Game) CanClaimWinnings() bool {
	if g.Status != GameStatusResolved || g.ClaimedAt.IsSome() {
		return false
	}
	result, ok := g.Result.Get()
	return ok && result.Payout > 0
}

func (g *Game) Resolve(result GameResult, now time.Time) error {
	if !g.CanBeResolved(now) {
		return ErrCannotResolveGame
	}
	g.Result = Some(result)
	g.Status = GameStatusResolved
	g.ResolvedAt = Some(now)
	return nil
}

// Claim marks the winnings as paid out and returns the payout amount.
func (g *Game) Claim(now time.Time) (uint64, error) {
	if !g.CanClaimWinnings() {
		return 0, ErrCannotClaimWinnings
	}
	result, _ := g.Result.Get()
	g.Status = GameStatusClaimed
	g.ClaimedAt = Some(now)
	return result.Payout, nil
}

func (g *Game) Cancel() error {
	switch g.Status {
	case GameStatusCreated, GameStatusActive:
		g.Status = GameStatusCancelled
		return nil
	default:
		return ErrCannotCancelGame
	}
}

func (g *Game) Expire(now time.Time) error {
	if !g.IsExpired(now) {
		return ErrGameNotExpired
	}
	switch g.Status {
	case GameStatusResolved, GameStatusClaimed, GameStatusCancelled, GameStatusExpired:
		return ErrCannotExpireGame
	}
	g.Status = GameStatusExpired
	return nil
}

// Duration is resolved_at - created_at, or now - created_at while unresolved.
func (g *Game) Duration(now time.Time) time.Duration {
	if resolvedAt, ok := g.ResolvedAt.Get(); ok {
		return resolvedAt.Sub(g.CreatedAt)
	}
	return now.Sub(g.CreatedAt)
}

// ValidatePrediction checks the prediction length the game type needs.
func ValidatePrediction(gameType GameType, prediction []byte) error {
	if len(prediction) > MaxPredictionLen {
		return ErrInvalidPrediction
	}
	switch gameType {
	case GameTypeCoinFlip, GameTypeRoulette:
		if len(prediction) < 1 {
			return ErrInvalidPrediction
		}
	case GameTypeDiceRoll:
		if len(prediction) < 2 {
			return ErrInvalidPrediction
		}
	}
	return nil
}
