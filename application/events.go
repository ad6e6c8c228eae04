package application

import "time"

// Topics published on the event bus passed via WithEventBus. Handlers are
// invoked synchronously during SettleAndMine.
const (
	// TopicRoundSettled carries a RoundSettledEvent after the matching
	// engine has produced a non-empty settlement batch.
	TopicRoundSettled = "ledger:round_settled"

	// TopicBlockMined carries a BlockMinedEvent after the settled batch
	// has been mined and appended.
	TopicBlockMined = "ledger:block_mined"
)

// RoundSettledEvent summarizes one pass of the matching engine.
type RoundSettledEvent struct {
	Settlements int // Trades produced this round
	Remaining   int // Offers still pending afterwards
}

// BlockMinedEvent describes the block a round appended to the chain.
type BlockMinedEvent struct {
	Index        int
	Hash         string
	Nonce        uint64
	Transactions int
	Duration     time.Duration // Time spent mining
}
