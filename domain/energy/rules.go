package energy

// Outcome is the result of one matching pass over the pending pool.
// Settlements are ready to be recorded in the next block; Remaining holds
// every offer still open, in its original arrival order, with producer
// offers reduced by whatever was sold.
type Outcome struct {
	Settlements []Transaction
	Remaining   []Transaction
}

// Match runs the automated trading rule over the pending offers and returns
// the settlements it produced together with the offers left open. It never
// modifies its input and touches no other state, so evaluating the same
// sequence twice yields the same pairings.
//
// Consumers are served in arrival order. Each BUY offer is paired with the
// first SELL offer, again in arrival order, that covers the full requested
// quantity at a price no higher than the consumer's limit; the trade
// settles at the producer's price. The first eligible producer wins, there
// is no auction beyond arrival order. A producer's surplus stays on the
// book as a reduced offer and keeps its queue position, so it can serve
// later consumers in the same pass.
func Match(pending []Transaction) Outcome {
	remaining := make([]Transaction, len(pending))
	copy(remaining, pending)
	consumed := make([]bool, len(remaining))

	var settlements []Transaction
	for i := range remaining {
		buy := remaining[i]
		if consumed[i] || buy.Kind != KindOffer || buy.Side != SideBuy {
			continue
		}
		for j := range remaining {
			sell := remaining[j]
			if consumed[j] || sell.Kind != KindOffer || sell.Side != SideSell {
				continue
			}
			if sell.Sender == buy.Sender {
				// a party never fills its own request
				continue
			}
			if sell.Amount < buy.Amount || sell.Price > buy.Price {
				continue
			}

			st, err := NewSettlement(sell.Sender, buy.Sender, buy.Amount, sell.Price)
			if err != nil {
				// both offers passed validation, so the pairing cannot fail
				continue
			}
			settlements = append(settlements, st)
			consumed[i] = true

			// The reduced offer keeps its identity: same ID, price and
			// queue position, only the open quantity shrinks.
			remaining[j].Amount -= buy.Amount
			if remaining[j].Amount <= 0 {
				consumed[j] = true
			}
			break
		}
	}

	out := Outcome{Settlements: settlements}
	for k := range remaining {
		if !consumed[k] {
			out.Remaining = append(out.Remaining, remaining[k])
		}
	}
	return out
}
