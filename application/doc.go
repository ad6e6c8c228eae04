// Package application wires the trading rule, the proof-of-work chain and
// the telemetry boundary into a single ledger service.
//
// # Responsibilities
//
// LedgerService: Accepts validated offers into the pending pool, runs the
// matching engine once per round, mines the settled batch into a new block
// and keeps the unmatched offers pending for future rounds. One round runs
// at a time; a failed round leaves both the pool and the chain untouched.
//
// Events: Round results are published on a synchronous event bus, so a
// reporter can follow settlements and mined blocks without the service
// knowing about presentation.
//
// # Usage
//
// Build a service with NewLedgerService and the With options, submit offers,
// then call SettleAndMine once per trading round. VerifyIntegrity can be
// called at any time and never modifies the chain.
package application
