package application

import (
	"context"
	"testing"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid/energyledger/domain/energy"
	"github.com/voltgrid/energyledger/ledger"
	"github.com/voltgrid/energyledger/telemetry"
)

func newTestService(opts ...Option) *LedgerService {
	base := []Option{WithDifficulty(1)}
	return NewLedgerService(append(base, opts...)...)
}

func submitSell(t *testing.T, s *LedgerService, sender string, amount, price float64) energy.Transaction {
	t.Helper()
	tx, err := energy.NewSellOffer(sender, amount, price)
	require.NoError(t, err)
	require.NoError(t, s.Submit(tx))
	return tx
}

func submitBuy(t *testing.T, s *LedgerService, sender string, amount, price float64) energy.Transaction {
	t.Helper()
	tx, err := energy.NewBuyOffer(sender, amount, price)
	require.NoError(t, err)
	require.NoError(t, s.Submit(tx))
	return tx
}

func TestNewLedgerService_FreshChainVerifies(t *testing.T) {
	s := newTestService()

	require.NoError(t, s.VerifyIntegrity())
	assert.Equal(t, 1, s.Stats().Height)
	assert.Empty(t, s.Pending())
}

func TestSubmit_PoolsValidOffer(t *testing.T) {
	s := newTestService()

	submitSell(t, s, "solar-a", 10, 0.10)

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "solar-a", pending[0].Sender)
}

func TestSubmit_RejectsInvalidTransaction(t *testing.T) {
	s := newTestService()

	err := s.Submit(energy.Transaction{Sender: "ghost", Amount: -1, Kind: energy.KindOffer})
	assert.ErrorIs(t, err, energy.ErrInvalidTransaction)
	assert.Empty(t, s.Pending())
}

func TestSubmit_RejectsSettlements(t *testing.T) {
	s := newTestService()

	st, err := energy.NewSettlement("solar-a", "home-1", 5, 0.10)
	require.NoError(t, err)

	err = s.Submit(st)
	assert.ErrorIs(t, err, energy.ErrInvalidTransaction)
	assert.Empty(t, s.Pending())
}

// TestSettleAndMine_EndToEnd walks the full happy path: a producer offer of
// 10 kWh at 0.10 meets a consumer request of 6 kWh at up to 0.15. The round
// must settle 6 kWh at the producer price, mine the settlement into block 1
// and keep the 4 kWh residual pending.
func TestSettleAndMine_EndToEnd(t *testing.T) {
	s := newTestService()
	submitSell(t, s, "solar-a", 10, 0.10)
	submitBuy(t, s, "home-1", 6, 0.15)

	block, err := s.SettleAndMine(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, block.Index)
	require.Len(t, block.Transactions, 1)
	settled := block.Transactions[0]
	assert.Equal(t, energy.KindSettlement, settled.Kind)
	assert.Equal(t, "solar-a", settled.Sender)
	assert.Equal(t, "home-1", settled.Receiver)
	assert.Equal(t, 6.0, settled.Amount)
	assert.Equal(t, 0.10, settled.Price)

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "solar-a", pending[0].Sender)
	assert.Equal(t, 4.0, pending[0].Amount)

	require.NoError(t, s.VerifyIntegrity())
	assert.Equal(t, 2, s.Stats().Height)

	assert.InDelta(t, 0.6, s.Balance("home-1"), 1e-9)
	assert.InDelta(t, -0.6, s.Balance("solar-a"), 1e-9)

	history := s.History("solar-a")
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].BlockIndex)
}

func TestSettleAndMine_EmptyPool(t *testing.T) {
	s := newTestService()

	_, err := s.SettleAndMine(context.Background())
	assert.ErrorIs(t, err, ErrNothingToSettle)
	assert.Equal(t, 1, s.Stats().Height)
}

// TestSettleAndMine_NoCompatibleOffers checks that a pool with no
// price/amount overlap produces no spurious trades and survives the round
// unchanged.
func TestSettleAndMine_NoCompatibleOffers(t *testing.T) {
	s := newTestService()
	submitSell(t, s, "solar-a", 5, 0.20)
	submitBuy(t, s, "home-1", 5, 0.15)

	_, err := s.SettleAndMine(context.Background())
	assert.ErrorIs(t, err, ErrNothingToSettle)

	pending := s.Pending()
	assert.Len(t, pending, 2)
	assert.Equal(t, 1, s.Stats().Height)
}

// TestSettleAndMine_MiningTimeoutLeavesStateUntouched checks the failure
// contract: when the nonce search gives up, no block is appended and the
// matched offers stay pending for a retry.
func TestSettleAndMine_MiningTimeoutLeavesStateUntouched(t *testing.T) {
	s := NewLedgerService(WithDifficulty(64), WithMaxAttempts(10))
	submitSell(t, s, "solar-a", 10, 0.10)
	submitBuy(t, s, "home-1", 6, 0.15)

	_, err := s.SettleAndMine(context.Background())
	assert.ErrorIs(t, err, ledger.ErrMiningTimeout)

	assert.Len(t, s.Pending(), 2)
	assert.Equal(t, 1, s.Stats().Height)
	require.NoError(t, s.VerifyIntegrity())
}

func TestSettleAndMine_CancelledContext(t *testing.T) {
	s := NewLedgerService(WithDifficulty(6))
	submitSell(t, s, "solar-a", 10, 0.10)
	submitBuy(t, s, "home-1", 6, 0.15)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SettleAndMine(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.Pending(), 2)
	assert.Equal(t, 1, s.Stats().Height)
}

// TestSettleAndMine_MultipleRounds runs two rounds back to back: the residual
// offer left by the first round fills a new request in the second, and the
// chain stays verifiable throughout.
func TestSettleAndMine_MultipleRounds(t *testing.T) {
	s := newTestService()
	submitSell(t, s, "solar-a", 10, 0.10)
	submitBuy(t, s, "home-1", 6, 0.15)

	_, err := s.SettleAndMine(context.Background())
	require.NoError(t, err)

	submitBuy(t, s, "home-2", 4, 0.12)

	block, err := s.SettleAndMine(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, block.Index)
	require.Len(t, block.Transactions, 1)
	assert.Equal(t, "home-2", block.Transactions[0].Receiver)
	assert.Equal(t, 4.0, block.Transactions[0].Amount)

	assert.Empty(t, s.Pending())
	require.NoError(t, s.VerifyIntegrity())
	assert.Equal(t, 3, s.Stats().Height)
}

func TestSettleAndMine_PublishesEvents(t *testing.T) {
	bus := evbus.New()
	var rounds []RoundSettledEvent
	var blocks []BlockMinedEvent
	require.NoError(t, bus.Subscribe(TopicRoundSettled, func(ev RoundSettledEvent) {
		rounds = append(rounds, ev)
	}))
	require.NoError(t, bus.Subscribe(TopicBlockMined, func(ev BlockMinedEvent) {
		blocks = append(blocks, ev)
	}))

	s := newTestService(WithEventBus(bus))
	submitSell(t, s, "solar-a", 10, 0.10)
	submitBuy(t, s, "home-1", 6, 0.15)

	block, err := s.SettleAndMine(context.Background())
	require.NoError(t, err)

	// The bus is synchronous, so both events are in by now.
	require.Len(t, rounds, 1)
	assert.Equal(t, 1, rounds[0].Settlements)
	assert.Equal(t, 1, rounds[0].Remaining)

	require.Len(t, blocks, 1)
	assert.Equal(t, block.Index, blocks[0].Index)
	assert.Equal(t, block.Hash, blocks[0].Hash)
	assert.Equal(t, block.Nonce, blocks[0].Nonce)
	assert.Equal(t, 1, blocks[0].Transactions)
}

// TestSettleAndMine_EventHandlerQueriesService has a subscriber call back
// into the service while handling a round's events. Handlers run on the
// publishing goroutine, so the round must not hold the service lock while
// the events go out, or any such handler would block the round forever.
func TestSettleAndMine_EventHandlerQueriesService(t *testing.T) {
	bus := evbus.New()
	var s *LedgerService
	var pendingSeen int
	var heightSeen int
	var verifyErr error
	require.NoError(t, bus.Subscribe(TopicBlockMined, func(ev BlockMinedEvent) {
		pendingSeen = len(s.Pending())
		heightSeen = s.Stats().Height
		verifyErr = s.VerifyIntegrity()
	}))

	s = newTestService(WithEventBus(bus))
	submitSell(t, s, "solar-a", 10, 0.10)
	submitBuy(t, s, "home-1", 6, 0.15)

	done := make(chan error, 1)
	go func() {
		_, err := s.SettleAndMine(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("round never finished while an event handler queried the service")
	}

	// The handler saw the state of the service after the round committed.
	assert.Equal(t, 1, pendingSeen)
	assert.Equal(t, 2, heightSeen)
	assert.NoError(t, verifyErr)
}

func TestSettleAndMine_ParallelMiningVerifies(t *testing.T) {
	s := NewLedgerService(WithDifficulty(2), WithMiningWorkers(4))
	submitSell(t, s, "solar-a", 10, 0.10)
	submitBuy(t, s, "home-1", 6, 0.15)

	block, err := s.SettleAndMine(context.Background())
	require.NoError(t, err)

	assert.True(t, ledger.MeetsDifficulty(block.Hash, 2))
	require.NoError(t, s.VerifyIntegrity())
}

func TestSubmitEstimate_BuildsOfferFromSource(t *testing.T) {
	s := newTestService()
	panel := telemetry.PanelReadings{PanelID: "panel-roof", Latitude: 28.6, PeakKWh: 20}

	offer, err := s.SubmitEstimate(panel, 172, 12, 0.11)
	require.NoError(t, err)

	want, err := panel.EstimateKWh(172, 12)
	require.NoError(t, err)

	assert.Equal(t, "panel-roof", offer.Sender)
	assert.Equal(t, want, offer.Amount)
	assert.Equal(t, energy.SideSell, offer.Side)

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, offer.ID, pending[0].ID)
}

func TestSubmitEstimate_NightReadingRejected(t *testing.T) {
	s := newTestService()
	panel := telemetry.PanelReadings{PanelID: "panel-roof", Latitude: 28.6, PeakKWh: 20}

	_, err := s.SubmitEstimate(panel, 172, 0, 0.11)
	assert.Error(t, err)
	assert.Empty(t, s.Pending())
}

func TestSnapshotRestore_AcrossServices(t *testing.T) {
	s := newTestService()
	submitSell(t, s, "solar-a", 10, 0.10)
	submitBuy(t, s, "home-1", 6, 0.15)
	_, err := s.SettleAndMine(context.Background())
	require.NoError(t, err)

	data, err := s.Snapshot()
	require.NoError(t, err)

	fresh := newTestService()
	require.NoError(t, fresh.Restore(data))
	require.NoError(t, fresh.VerifyIntegrity())
	assert.Equal(t, s.Stats(), fresh.Stats())
	assert.InDelta(t, s.Balance("home-1"), fresh.Balance("home-1"), 1e-9)
}
