// Package energy implements the domain logic for peer-to-peer energy
// trading, including the transaction model and the automated matching rule
// that turns open offers into settled trades.
//
// # Core Types
//
// Transaction: An immutable record of an energy trade. An OFFER is an open
// position (a producer selling surplus or a consumer requesting energy);
// a SETTLEMENT is a completed, matched trade between two named parties.
//
// Kind: Discriminates OFFER from SETTLEMENT rows.
//
// Side: Tells which way an OFFER trades. SELL marks producer surplus,
// BUY marks consumer demand. Settlements carry no side.
//
// Outcome: The result of one matching pass, holding the settlements to
// record and the offers that stay open.
//
// # Trading Rule
//
// Match pairs a consumer's BUY offer with the first producer SELL offer, in
// arrival order, whose quantity covers the request and whose asking price
// does not exceed the consumer's limit. The trade settles at the producer's
// price for the consumer's full quantity; a producer's surplus stays on the
// book as a reduced offer. There is exactly one rule and no auction:
// arrival order is the only priority, which keeps matching deterministic.
package energy
