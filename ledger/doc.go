// Package ledger implements an immutable proof-of-work blockchain for
// recording settled energy trades.
//
// # Core Components
//
// Blockchain: An append-only log of settlement batches with cryptographic
// hash chaining for tamper detection. Every block after the genesis is mined.
//
// Block: A batch of settled transactions together with the proof-of-work
// fields (difficulty, nonce) and the cryptographic link to the previous
// block.
//
// Mine: The nonce search. A block is valid once its hash carries at least as
// many leading zero hex digits as the block's difficulty. The search can be
// striped across several workers racing to the first valid nonce.
//
// # Security Properties
//
// The blockchain provides:
//   - Immutability: Once recorded, blocks cannot be modified
//   - Verifiability: Anyone can verify the integrity of the entire chain
//   - Auditability: Complete history of all settled trades
//   - Tamper detection: Any modification breaks the hash chain or the
//     proof of work
//
// # Usage
//
// Create a blockchain, then append settlement batches as trading rounds
// complete; each append mines the new block at the difficulty passed by the
// caller. The Verify method can be called at any time to ensure the chain
// remains intact, and Snapshot/Restore round-trip the chain through JSON
// with full re-verification on the way in.
//
// Each block records the difficulty it was mined at and is verified against
// that recorded value, so raising the difficulty between rounds never
// invalidates earlier blocks.
package ledger
