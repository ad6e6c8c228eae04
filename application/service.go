package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"github.com/voltgrid/energyledger/domain/energy"
	"github.com/voltgrid/energyledger/ledger"
	"github.com/voltgrid/energyledger/telemetry"
)

// ErrNothingToSettle is returned by SettleAndMine when the matching engine
// finds no compatible offers. The round is skipped: no block is mined and
// the pending pool is left as it was.
var ErrNothingToSettle = errors.New("no offers could be settled")

// DefaultDifficulty is the proof-of-work difficulty used when no
// WithDifficulty option is given.
const DefaultDifficulty = 2

// LedgerService coordina il pool di offerte, il motore di matching e la
// catena. It owns the pending pool and serializes trading rounds, so the
// chain only ever grows by one fully mined block at a time.
type LedgerService struct {
	mu      sync.Mutex
	chain   *ledger.Blockchain
	pending []energy.Transaction

	difficulty  int
	workers     int
	maxAttempts uint64
	bus         evbus.Bus
	logger      *slog.Logger
}

// NewLedgerService creates a service with a fresh chain (genesis only), an
// empty pending pool and the given options applied over the defaults.
func NewLedgerService(opts ...Option) *LedgerService {
	s := settings{
		difficulty: DefaultDifficulty,
		workers:    1,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		s = opt(s)
	}

	return &LedgerService{
		chain:       ledger.NewBlockchain(),
		difficulty:  s.difficulty,
		workers:     s.workers,
		maxAttempts: s.maxAttempts,
		bus:         s.bus,
		logger:      s.logger,
	}
}

// Submit adds an open offer to the pending pool. Only validated OFFER
// transactions are accepted; settlements are produced by the matching engine
// and can never be submitted from outside. An invalid transaction is
// rejected with ErrInvalidTransaction and never enters the pool.
func (s *LedgerService) Submit(tx energy.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if tx.Kind != energy.KindOffer {
		return fmt.Errorf("%w: only open offers can be submitted", energy.ErrInvalidTransaction)
	}

	s.mu.Lock()
	s.pending = append(s.pending, tx)
	s.mu.Unlock()

	s.logger.Debug("offer submitted",
		"id", tx.ID,
		"sender", tx.Sender,
		"side", tx.Side,
		"amount", tx.Amount,
		"price", tx.Price,
	)
	return nil
}

// SubmitEstimate turns a telemetry reading into a sell offer. The estimated
// kWh figure is used as the offer amount exactly as the source reported it;
// the source's name becomes the producer address. An estimate the offer
// validation refuses (zero, negative, not finite) never enters the pool.
func (s *LedgerService) SubmitEstimate(src telemetry.Source, day, hour int, price float64) (energy.Transaction, error) {
	kWh, err := src.EstimateKWh(day, hour)
	if err != nil {
		return energy.Transaction{}, fmt.Errorf("reading estimate from %s: %w", src.Name(), err)
	}

	offer, err := energy.NewSellOffer(src.Name(), kWh, price)
	if err != nil {
		return energy.Transaction{}, fmt.Errorf("offer from %s estimate: %w", src.Name(), err)
	}
	if err := s.Submit(offer); err != nil {
		return energy.Transaction{}, err
	}
	return offer, nil
}

// SettleAndMine runs one trading round: the matching engine walks the
// pending pool, the resulting settlement batch is mined into a new block and
// the unmatched offers stay pending for future rounds. Returns
// ErrNothingToSettle when the engine produces no trades. On any failure,
// mining timeout and cancellation included, both the pool and the chain are
// left exactly as they were; a partially mined block is never appended.
// Events go out after the round's lock is released, so bus handlers are free
// to query the service.
func (s *LedgerService) SettleAndMine(ctx context.Context) (ledger.Block, error) {
	s.mu.Lock()

	outcome := energy.Match(s.pending)
	if len(outcome.Settlements) == 0 {
		s.mu.Unlock()
		return ledger.Block{}, ErrNothingToSettle
	}

	start := time.Now()
	block, err := s.chain.Append(ctx, outcome.Settlements, s.difficulty,
		ledger.WithWorkers(s.workers), ledger.WithMaxAttempts(s.maxAttempts))
	if err != nil {
		s.mu.Unlock()
		return ledger.Block{}, fmt.Errorf("settling round: %w", err)
	}
	elapsed := time.Since(start)

	// Il pool viene sostituito solo a blocco minato
	s.pending = outcome.Remaining
	s.mu.Unlock()

	s.logger.Info("round settled",
		"settlements", len(outcome.Settlements),
		"pending", len(outcome.Remaining),
	)
	s.logger.Info("block mined",
		"index", block.Index,
		"hash", block.Hash,
		"nonce", block.Nonce,
		"duration", elapsed,
	)

	if s.bus != nil {
		s.bus.Publish(TopicRoundSettled, RoundSettledEvent{
			Settlements: len(outcome.Settlements),
			Remaining:   len(outcome.Remaining),
		})
		s.bus.Publish(TopicBlockMined, BlockMinedEvent{
			Index:        block.Index,
			Hash:         block.Hash,
			Nonce:        block.Nonce,
			Transactions: len(block.Transactions),
			Duration:     elapsed,
		})
	}

	return block, nil
}

// VerifyIntegrity checks every block of the chain against the ledger
// invariants. It reports the first violation and never repairs anything.
func (s *LedgerService) VerifyIntegrity() error {
	return s.chain.Verify()
}

// Pending returns a copy of the open offers, in arrival order.
func (s *LedgerService) Pending() []energy.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]energy.Transaction, len(s.pending))
	copy(out, s.pending)
	return out
}

// Balance returns the address's net settled value across the whole chain.
func (s *LedgerService) Balance(address string) float64 {
	return s.chain.Balance(address)
}

// History returns the settlements the address took part in, oldest first.
func (s *LedgerService) History(address string) []ledger.TradeRecord {
	return s.chain.History(address)
}

// Stats reports the current chain summary.
func (s *LedgerService) Stats() ledger.Stats {
	return s.chain.GetStats()
}

// Snapshot serializes the chain as JSON. Pending offers are not part of a
// snapshot; only the recorded history is.
func (s *LedgerService) Snapshot() ([]byte, error) {
	return s.chain.Snapshot()
}

// Restore replaces the chain with a previously taken snapshot after fully
// re-verifying it. The pending pool is kept, since open offers were never
// part of the recorded history.
func (s *LedgerService) Restore(data []byte) error {
	return s.chain.Restore(data)
}
