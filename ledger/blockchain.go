package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voltgrid/energyledger/domain/energy"
)

// genesisTimestamp pins the genesis block to a fixed instant so that every
// node derives the same genesis hash.
const genesisTimestamp int64 = 0

// maxDifficulty is the length of a SHA256 hex digest. No digest can carry
// more leading zero digits than that, so a higher target can never be mined.
const maxDifficulty = 64

var genesisPrevHash = strings.Repeat("0", 64)

type Blockchain struct {
	mu     sync.RWMutex
	blocks []Block
}

// NewBlockchain creates a new chain holding only the genesis block. The
// genesis block has index 0, the all-zero previous hash sentinel, no
// transactions and difficulty 0, which keeps it exempt from proof of work
// while still satisfying the per-block difficulty check. All its fields are
// fixed, so its hash is identical on every node.
func NewBlockchain() *Blockchain {
	bc := &Blockchain{
		blocks: make([]Block, 0),
	}

	// Crea genesis block
	genesis := Block{
		Index:        0,
		Timestamp:    genesisTimestamp,
		Transactions: []energy.Transaction{},
		PrevHash:     genesisPrevHash,
		Difficulty:   0,
		Nonce:        0,
	}
	genesis.Hash = genesis.ComputeHash()
	bc.blocks = append(bc.blocks, genesis)

	return bc
}

// Append mines a new block holding the given transactions on top of the
// current tip and adds it to the chain. The block records the difficulty it
// was mined at; values outside 0..64 are rejected, since a SHA256 digest
// cannot carry more than 64 leading zero digits and the search would never
// terminate. Returns ErrEmptyBatch if the batch is empty, ErrMiningTimeout
// if a configured attempt cap runs out, or the context error if the search is
// cancelled; in every failure case the chain is left unchanged. On success a
// detached copy of the new block is returned.
func (bc *Blockchain) Append(ctx context.Context, txs []energy.Transaction, difficulty int, opts ...mineOption) (Block, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if len(txs) == 0 {
		return Block{}, ErrEmptyBatch
	}
	if difficulty < 0 || difficulty > maxDifficulty {
		return Block{}, fmt.Errorf("difficulty %d out of range 0..%d", difficulty, maxDifficulty)
	}

	latest := bc.blocks[len(bc.blocks)-1]

	newBlock := Block{
		Index:        latest.Index + 1,
		Timestamp:    time.Now().Unix(),
		Transactions: cloneTransactions(txs),
		PrevHash:     latest.Hash,
		Difficulty:   difficulty,
	}

	nonce, hash, err := Mine(ctx, newBlock, opts...)
	if err != nil {
		return Block{}, fmt.Errorf("mining block %d: %w", newBlock.Index, err)
	}
	newBlock.Nonce = nonce
	newBlock.Hash = hash

	if err := validateBlock(newBlock, latest); err != nil {
		return Block{}, fmt.Errorf("invalid block: %w", err)
	}

	bc.blocks = append(bc.blocks, newBlock)

	return newBlock.clone(), nil
}

// GetLatest returns a copy of the most recently added block.
// Returns an error if the blockchain is empty.
func (bc *Blockchain) GetLatest() (Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if len(bc.blocks) == 0 {
		return Block{}, fmt.Errorf("blockchain is empty")
	}

	return bc.blocks[len(bc.blocks)-1].clone(), nil
}

// GetByIndex retrieves a copy of the block at the given index. Returns an
// error if the index is out of range.
func (bc *Blockchain) GetByIndex(index int) (Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if index < 0 || index >= len(bc.blocks) {
		return Block{}, fmt.Errorf("index %d out of range", index)
	}

	return bc.blocks[index].clone(), nil
}

// Len returns the number of blocks in the chain, genesis included.
func (bc *Blockchain) Len() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	return len(bc.blocks)
}

// Verify walks the whole chain and checks the genesis shape plus, for every
// later block, index continuity, previous hash linkage, hash consistency and
// proof of work against the block's recorded difficulty. The first violation
// is returned as an *IntegrityError carrying the offending block's index and
// the violated invariant; nil means the chain is intact. Verify never
// modifies the chain.
func (bc *Blockchain) Verify() error {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	return verifyChain(bc.blocks)
}

func verifyChain(blocks []Block) error {
	if len(blocks) == 0 {
		return fmt.Errorf("empty blockchain")
	}

	// Verifica genesis
	genesis := blocks[0]
	if genesis.Index != 0 ||
		genesis.Timestamp != genesisTimestamp ||
		genesis.PrevHash != genesisPrevHash ||
		genesis.Difficulty != 0 ||
		genesis.Nonce != 0 ||
		len(genesis.Transactions) != 0 {
		return &IntegrityError{
			Index:     0,
			Invariant: InvariantGenesis,
			Reason:    "genesis block does not match the hard-coded shape",
		}
	}
	if genesis.Hash != genesis.ComputeHash() {
		return &IntegrityError{
			Index:     0,
			Invariant: InvariantConsistency,
			Reason:    "stored hash does not match the recomputed digest",
		}
	}

	// Verifica ogni blocco
	for i := 1; i < len(blocks); i++ {
		if err := validateBlock(blocks[i], blocks[i-1]); err != nil {
			return err
		}
	}

	return nil
}

// validateBlock verifies that a block is valid relative to the previous
// block: index continuity, previous hash linkage, hash consistency, proof of
// work and a non-empty transaction batch.
func validateBlock(current, previous Block) error {
	// Verifica indice
	if current.Index != previous.Index+1 {
		return &IntegrityError{
			Index:     current.Index,
			Invariant: InvariantIndex,
			Reason:    fmt.Sprintf("expected index %d, got %d", previous.Index+1, current.Index),
		}
	}

	// Verifica prev hash
	if current.PrevHash != previous.Hash {
		return &IntegrityError{
			Index:     current.Index,
			Invariant: InvariantLinkage,
			Reason:    "prev_hash does not match the previous block's hash",
		}
	}

	// Verifica hash corrente
	if current.Hash != current.ComputeHash() {
		return &IntegrityError{
			Index:     current.Index,
			Invariant: InvariantConsistency,
			Reason:    "stored hash does not match the recomputed digest",
		}
	}

	// Verifica proof of work
	if !MeetsDifficulty(current.Hash, current.Difficulty) {
		return &IntegrityError{
			Index:     current.Index,
			Invariant: InvariantProofOfWork,
			Reason:    fmt.Sprintf("hash lacks %d leading zero digits", current.Difficulty),
		}
	}

	// Solo il genesis può essere vuoto
	if len(current.Transactions) == 0 {
		return &IntegrityError{
			Index:     current.Index,
			Invariant: InvariantConsistency,
			Reason:    "non-genesis block carries no transactions",
		}
	}

	return nil
}

// TradeRecord pairs a settled transaction with the block that recorded it.
type TradeRecord struct {
	BlockIndex  int                `json:"block_index"`
	Transaction energy.Transaction `json:"transaction"`
}

// Balance returns the net value an address accumulated across all recorded
// settlements: credited with the total cost of every settlement it received,
// debited with the total cost of every settlement it sent. Addresses that
// never traded have balance 0.
func (bc *Blockchain) Balance(address string) float64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	balance := 0.0
	for _, block := range bc.blocks {
		for _, tx := range block.Transactions {
			if tx.Kind != energy.KindSettlement {
				continue
			}
			if tx.Receiver == address {
				balance += tx.TotalCost()
			}
			if tx.Sender == address {
				balance -= tx.TotalCost()
			}
		}
	}

	return balance
}

// History returns every recorded settlement the address took part in, oldest
// first, each paired with the index of the block that holds it.
func (bc *Blockchain) History(address string) []TradeRecord {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	var records []TradeRecord
	for _, block := range bc.blocks {
		for _, tx := range block.Transactions {
			if tx.Kind != energy.KindSettlement {
				continue
			}
			if tx.Sender == address || tx.Receiver == address {
				records = append(records, TradeRecord{
					BlockIndex:  block.Index,
					Transaction: tx,
				})
			}
		}
	}

	return records
}

// Stats is a point-in-time summary of the chain.
type Stats struct {
	Height       int     `json:"height"`
	Transactions int     `json:"transactions"`
	EnergyKWh    float64 `json:"energy_kwh"`
	TipHash      string  `json:"tip_hash"`
}

// GetStats reports the chain height, the number of recorded transactions,
// the total energy settled in kWh and the hash of the tip block. An empty
// blockchain reports zero stats.
func (bc *Blockchain) GetStats() Stats {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if len(bc.blocks) == 0 {
		return Stats{}
	}

	stats := Stats{
		Height:  len(bc.blocks),
		TipHash: bc.blocks[len(bc.blocks)-1].Hash,
	}
	for _, block := range bc.blocks {
		stats.Transactions += len(block.Transactions)
		for _, tx := range block.Transactions {
			if tx.Kind == energy.KindSettlement {
				stats.EnergyKWh += tx.Amount
			}
		}
	}

	return stats
}

// Snapshot serializes the whole chain as indented JSON. The encoding keeps
// every hash field, so a snapshot can be re-verified on restore.
func (bc *Blockchain) Snapshot() ([]byte, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	data, err := json.MarshalIndent(bc.blocks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Restore replaces the chain with the blocks decoded from a Snapshot. The
// decoded chain is verified in full first; a snapshot whose blocks fail any
// invariant is rejected and the current chain is left untouched.
func (bc *Blockchain) Restore(data []byte) error {
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	if err := verifyChain(blocks); err != nil {
		return fmt.Errorf("rejecting snapshot: %w", err)
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.blocks = blocks

	return nil
}
