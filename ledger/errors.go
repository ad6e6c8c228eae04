package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch is returned by Append when the transaction batch is
	// empty. Only the genesis block may carry no transactions.
	ErrEmptyBatch = errors.New("empty transaction batch")

	// ErrMiningTimeout is returned when a configured attempt cap is
	// exhausted before a valid nonce is found. Nothing is appended.
	ErrMiningTimeout = errors.New("mining attempt cap exhausted")
)

// Invariant names the chain property an IntegrityError reports as violated.
type Invariant string

const (
	// InvariantLinkage: a block's prev_hash must equal the previous
	// block's hash.
	InvariantLinkage Invariant = "linkage"

	// InvariantIndex: block indices must increase by exactly one.
	InvariantIndex Invariant = "index"

	// InvariantProofOfWork: a block's hash must carry at least as many
	// leading zero hex digits as its recorded difficulty.
	InvariantProofOfWork Invariant = "proof-of-work"

	// InvariantConsistency: a block's stored hash must equal the digest
	// recomputed from its contents.
	InvariantConsistency Invariant = "consistency"

	// InvariantGenesis: the first block must keep the hard-coded genesis
	// shape.
	InvariantGenesis Invariant = "genesis"
)

// IntegrityError describes the first invariant violation found while
// verifying the chain. It is reported, never repaired: a violation means the
// chain (or a snapshot of it) was modified outside Append.
type IntegrityError struct {
	Index     int
	Invariant Invariant
	Reason    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("block %d violates %s invariant: %s", e.Index, e.Invariant, e.Reason)
}
