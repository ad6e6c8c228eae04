package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/voltgrid/energyledger/domain/energy"
)

// Block rappresenta un blocco nella catena
type Block struct {
	Index        int                  `json:"index"`
	Timestamp    int64                `json:"timestamp"`
	Transactions []energy.Transaction `json:"transactions"` // Insertion order preserved
	PrevHash     string               `json:"prev_hash"`
	Difficulty   int                  `json:"difficulty"` // Leading zero hex digits required of Hash
	Nonce        uint64               `json:"nonce"`
	Hash         string               `json:"hash"`
}

// ComputeHash returns the SHA256 digest of the block contents as a hex string.
// The transactions are JSON marshaled before hashing, then concatenated with
// index, timestamp, previous hash, difficulty and nonce. Every field that can
// alter the block's meaning is part of the preimage, so any edit to a recorded
// block changes its digest.
func (b Block) ComputeHash() string {
	txBytes, _ := json.Marshal(b.Transactions)

	data := fmt.Sprintf("%d%d%s%s%d%d",
		b.Index,
		b.Timestamp,
		string(txBytes),
		b.PrevHash,
		b.Difficulty,
		b.Nonce,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// clone returns a copy of the block whose transaction slice is detached from
// the receiver's backing array.
func (b Block) clone() Block {
	b.Transactions = cloneTransactions(b.Transactions)
	return b
}

func cloneTransactions(txs []energy.Transaction) []energy.Transaction {
	out := make([]energy.Transaction, len(txs))
	copy(out, txs)
	return out
}
