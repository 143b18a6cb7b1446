package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casino-engine/internal/fairness"
	"casino-engine/internal/models"
	"casino-engine/internal/services"
)

var errCommitLost = errors.New("commit lost")

// interferingStore wraps a Store and can make the next updates lose their
// commit, or run a competing operation between an update's reads and its
// commit. It also records the keys every update declares.
type interferingStore struct {
	services.Store

	mu       sync.Mutex
	refuse   int
	during   func()
	declared [][]string
}

func (s *interferingStore) Update(ctx context.Context, keys []string, fn func(tx services.Tx) error) error {
	s.mu.Lock()
	s.declared = append(s.declared, append([]string(nil), keys...))
	refuse := s.refuse > 0
	if refuse {
		s.refuse--
	}
	during := s.during
	s.during = nil
	s.mu.Unlock()

	err := s.Store.Update(ctx, keys, func(tx services.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		if during != nil {
			during()
		}
		if refuse {
			return errCommitLost
		}
		return nil
	})
	if errors.Is(err, errCommitLost) {
		return models.ErrConcurrentModification
	}
	return err
}

func (s *interferingStore) refuseNext(n int) {
	s.mu.Lock()
	s.refuse = n
	s.mu.Unlock()
}

func (s *interferingStore) duringNext(fn func()) {
	s.mu.Lock()
	s.during = fn
	s.mu.Unlock()
}

func (s *interferingStore) lastKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.declared) == 0 {
		return nil
	}
	return s.declared[len(s.declared)-1]
}

func newInterferingFixture(t *testing.T, vaultFunds uint64) (*fixture, *interferingStore) {
	t.Helper()
	store := &interferingStore{Store: services.NewMemoryStore()}
	return newFixtureOn(t, vaultFunds, store), store
}

func TestCreateGameUndoesStakeWhenCommitFails(t *testing.T) {
	f, store := newInterferingFixture(t, 1000)
	nonce := f.casino(t).NextSessionID

	store.refuseNext(1)
	_, err := f.engine.CreateGame(f.ctx, "alice", services.CreateGameParams{
		GameType:       models.GameTypeCoinFlip,
		BetAmount:      1000,
		Prediction:     []byte{0},
		ClientSeed:     clientSeed,
		ServerSeedHash: fairness.HashSeed("seed-1"),
	})
	assert.ErrorIs(t, err, models.ErrConcurrentModification)

	assert.Equal(t, uint64(10_000), f.balance(t, services.WalletAccount("alice")))
	assert.Equal(t, uint64(1000), f.balance(t, services.VaultAccount(casinoID)))
	assert.Equal(t, nonce, f.casino(t).NextSessionID)
	_, err = f.engine.GetGame(f.ctx, models.GameID(casinoID, "alice", fairness.HashSeed("seed-1")))
	assert.ErrorIs(t, err, models.ErrGameNotFound)

	game := f.coinFlip(t, "alice", "seed-1", true)
	assert.Equal(t, uint64(9000), f.balance(t, services.WalletAccount("alice")))
	assert.Equal(t, uint64(2000), f.balance(t, services.VaultAccount(casinoID)))

	history, err := f.custody.History(f.ctx, services.WalletAccount("alice"), 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "stake:"+game.ID, history[0].Ref)
	assert.Equal(t, "reversal:stake:"+game.ID, history[1].Ref)
	assert.Equal(t, "stake:"+game.ID, history[2].Ref)
}

func TestClaimUndoesPayoutWhenCommitFails(t *testing.T) {
	f, store := newInterferingFixture(t, 1_000_000)
	game := f.coinFlip(t, "alice", "seed-1", true)
	_, err := f.engine.ResolveGame(f.ctx, "alice", game.ID, "seed-1", game.ProvableFair.Nonce)
	require.NoError(t, err)

	store.refuseNext(1)
	_, err = f.engine.ClaimWinnings(f.ctx, "alice", game.ID)
	assert.ErrorIs(t, err, models.ErrConcurrentModification)
	assert.Equal(t, uint64(9000), f.balance(t, services.WalletAccount("alice")))
	assert.Equal(t, uint64(1_001_000), f.balance(t, services.VaultAccount(casinoID)))

	stored, err := f.engine.GetGame(f.ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusResolved, stored.Status)

	paid, err := f.engine.ClaimWinnings(f.ctx, "alice", game.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1920), paid)
	assert.Equal(t, uint64(9000+1920), f.balance(t, services.WalletAccount("alice")))
	assert.Equal(t, uint64(1_001_000-1920), f.balance(t, services.VaultAccount(casinoID)))
}

func TestCancelUndoesRefundWhenCommitFails(t *testing.T) {
	f, store := newInterferingFixture(t, 0)
	game := f.coinFlip(t, "alice", "seed-1", true)

	store.refuseNext(1)
	_, err := f.engine.CancelGame(f.ctx, "alice", game.ID)
	assert.ErrorIs(t, err, models.ErrConcurrentModification)
	assert.Equal(t, uint64(9000), f.balance(t, services.WalletAccount("alice")))
	assert.Equal(t, uint64(1000), f.balance(t, services.VaultAccount(casinoID)))

	stored, err := f.engine.GetGame(f.ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusCreated, stored.Status)

	_, err = f.engine.CancelGame(f.ctx, "alice", game.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), f.balance(t, services.WalletAccount("alice")))
	assert.Equal(t, uint64(0), f.balance(t, services.VaultAccount(casinoID)))
}

func TestJoinUndoesEntryFeeWhenCommitFails(t *testing.T) {
	f, store := newInterferingFixture(t, 0)
	m := services.NewTournamentManager(f.engine, nil)
	tr := newTournament(t, f, m, 2)

	store.refuseNext(1)
	_, err := m.Join(f.ctx, "alice", tr.ID)
	assert.ErrorIs(t, err, models.ErrConcurrentModification)
	assert.Equal(t, uint64(10_000), f.balance(t, services.WalletAccount("alice")))
	assert.Equal(t, uint64(0), f.balance(t, services.TournamentAccount(tr.ID)))

	got, err := m.Get(f.ctx, tr.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Players)

	joined, err := m.Join(f.ctx, "alice", tr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, joined.Players)
	assert.Equal(t, uint64(9500), f.balance(t, services.WalletAccount("alice")))
	assert.Equal(t, uint64(500), f.balance(t, services.TournamentAccount(tr.ID)))
}

func TestWithdrawTreasuryUndoneWhenCommitFails(t *testing.T) {
	f, store := newInterferingFixture(t, 1_000_000)
	for i, seed := range []string{"seed-1", "seed-2"} {
		game := f.coinFlip(t, "alice", seed, false)
		_, err := f.engine.ResolveGame(f.ctx, "alice", game.ID, seed, uint64(i))
		require.NoError(t, err)
	}

	store.refuseNext(1)
	_, err := f.engine.WithdrawTreasury(f.ctx, authority, 20)
	assert.ErrorIs(t, err, models.ErrConcurrentModification)
	assert.Equal(t, uint64(0), f.balance(t, services.TreasuryAccount(casinoID)))
	assert.Equal(t, uint64(0), f.casino(t).TreasuryWithdrawn)

	c, err := f.engine.WithdrawTreasury(f.ctx, authority, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), c.TreasuryWithdrawn)
	assert.Equal(t, uint64(20), f.balance(t, services.TreasuryAccount(casinoID)))
}

func TestSettlingWatchesOnlyTheGame(t *testing.T) {
	f, store := newInterferingFixture(t, 1_000_000)
	only := func(id string) []string { return []string{fmt.Sprintf(services.KeyGame, id)} }

	won := f.coinFlip(t, "alice", "seed-1", true)
	_, err := f.engine.ResolveGame(f.ctx, "alice", won.ID, "seed-1", won.ProvableFair.Nonce)
	require.NoError(t, err)
	_, err = f.engine.ClaimWinnings(f.ctx, "alice", won.ID)
	require.NoError(t, err)
	assert.Equal(t, only(won.ID), store.lastKeys())

	cancelled := f.coinFlip(t, "alice", "seed-2", true)
	_, err = f.engine.CancelGame(f.ctx, authority, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, only(cancelled.ID), store.lastKeys())

	stale := f.coinFlip(t, "alice", "seed-3", true)
	f.clock.Advance(models.MaxGameDuration + time.Second)
	_, err = f.engine.ExpireGame(f.ctx, "bob", stale.ID)
	require.NoError(t, err)
	assert.Equal(t, only(stale.ID), store.lastKeys())
}

func TestClaimCommitsAlongsideConcurrentCreate(t *testing.T) {
	f, store := newInterferingFixture(t, 1_000_000)
	game := f.coinFlip(t, "alice", "seed-1", true)
	_, err := f.engine.ResolveGame(f.ctx, "alice", game.ID, "seed-1", game.ProvableFair.Nonce)
	require.NoError(t, err)

	var other *models.Game
	store.duringNext(func() {
		other = f.coinFlip(t, "bob", "seed-2", true)
	})
	paid, err := f.engine.ClaimWinnings(f.ctx, "alice", game.ID)
	require.NoError(t, err)
	require.NotNil(t, other)

	assert.Equal(t, uint64(1920), paid)
	assert.Equal(t, uint64(9000+1920), f.balance(t, services.WalletAccount("alice")))
	assert.Equal(t, uint64(9000), f.balance(t, services.WalletAccount("bob")))

	stored, err := f.engine.GetGame(f.ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusClaimed, stored.Status)
}

func TestClaimLeavesCompetingPayoutAlone(t *testing.T) {
	f := newFixture(t, 1_000_000)
	game := f.coinFlip(t, "alice", "seed-1", true)
	_, err := f.engine.ResolveGame(f.ctx, "alice", game.ID, "seed-1", game.ProvableFair.Nonce)
	require.NoError(t, err)

	// Another attempt has paid out but not yet committed the claim.
	vault, wallet := services.VaultAccount(casinoID), services.WalletAccount("alice")
	_, err = f.custody.Transfer(f.ctx, "payout:"+game.ID, vault, wallet, 1920)
	require.NoError(t, err)

	_, err = f.engine.ClaimWinnings(f.ctx, "alice", game.ID)
	assert.ErrorIs(t, err, models.ErrConcurrentModification)
	assert.Equal(t, uint64(9000+1920), f.balance(t, wallet), "the competing payout is not reversed")

	// The other attempt lost its commit and undid its payout.
	require.NoError(t, f.custody.Reverse(f.ctx, "payout:"+game.ID, vault, wallet, 1920))

	paid, err := f.engine.ClaimWinnings(f.ctx, "alice", game.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1920), paid)
	assert.Equal(t, uint64(9000+1920), f.balance(t, wallet))
}
