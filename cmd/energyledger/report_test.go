package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"github.com/voltgrid/energyledger/application"
)

// TestReporterRecordsBusEvents publishes both topics and checks the reporter
// keeps the latest payloads for rendering.
func TestReporterRecordsBusEvents(t *testing.T) {
	bus := evbus.New()
	reporter := newReporter(true)
	if err := reporter.subscribe(bus); err != nil {
		t.Fatal(err)
	}

	bus.Publish(application.TopicRoundSettled, application.RoundSettledEvent{Settlements: 2, Remaining: 1})
	bus.Publish(application.TopicBlockMined, application.BlockMinedEvent{
		Index:        3,
		Hash:         "00abc",
		Nonce:        42,
		Transactions: 2,
		Duration:     5 * time.Millisecond,
	})

	if reporter.lastRound.Settlements != 2 || reporter.lastRound.Remaining != 1 {
		t.Errorf("unexpected round event recorded: %+v", reporter.lastRound)
	}
	if reporter.lastBlock.Index != 3 || reporter.lastBlock.Nonce != 42 {
		t.Errorf("unexpected block event recorded: %+v", reporter.lastBlock)
	}
}

// TestShortHash truncates full digests and leaves short strings alone.
func TestShortHash(t *testing.T) {
	digest := "00af3b9cd1e47a62f08b5c91d2e63f4a7b8c9d0e1f2a3b4c5d6e7f8091a2b3c4"
	if got := shortHash(digest); got != "00af3b9cd1e47a62" {
		t.Errorf("expected 16 digit prefix, got %q", got)
	}
	if got := shortHash("00abc"); got != "00abc" {
		t.Errorf("expected short hash unchanged, got %q", got)
	}
}

// TestRunDemoRejectsImpossibleDifficulty checks the flag guard: no SHA256
// digest carries more than 64 leading zero digits, so the demo must refuse
// to start instead of mining a target that can never be met.
func TestRunDemoRejectsImpossibleDifficulty(t *testing.T) {
	saved := flags
	defer func() { flags = saved }()
	flags = demoFlags{difficulty: 65, workers: 1, rounds: 1, quiet: true}

	if err := runDemo(); err == nil {
		t.Fatal("expected error for difficulty above 64, got nil")
	}
}

// TestRunDemoQuiet runs the whole scripted demo at low difficulty and checks
// the exported snapshot can seed a fresh service.
func TestRunDemoQuiet(t *testing.T) {
	exportPath := filepath.Join(t.TempDir(), "chain.json")
	saved := flags
	defer func() { flags = saved }()
	flags = demoFlags{
		difficulty: 1,
		workers:    2,
		rounds:     2,
		export:     exportPath,
		quiet:      true,
	}

	if err := runDemo(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatal(err)
	}
	restored := application.NewLedgerService()
	if err := restored.Restore(data); err != nil {
		t.Fatalf("exported snapshot rejected: %v", err)
	}
	if restored.Stats().Height < 2 {
		t.Errorf("expected at least one mined block in the snapshot, got height %d", restored.Stats().Height)
	}
}
