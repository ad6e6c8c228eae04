package main

import (
	"strings"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/voltgrid/energyledger/application"
	"github.com/voltgrid/energyledger/ledger"
)

// reporter listens on the service bus and turns the recorded events into the
// terminal panels shown after each round.
type reporter struct {
	quiet     bool
	lastRound application.RoundSettledEvent
	lastBlock application.BlockMinedEvent
}

func newReporter(quiet bool) *reporter {
	return &reporter{quiet: quiet}
}

func (r *reporter) subscribe(bus evbus.Bus) error {
	if err := bus.Subscribe(application.TopicRoundSettled, r.onRoundSettled); err != nil {
		return err
	}
	return bus.Subscribe(application.TopicBlockMined, r.onBlockMined)
}

func (r *reporter) onRoundSettled(ev application.RoundSettledEvent) {
	r.lastRound = ev
}

func (r *reporter) onBlockMined(ev application.BlockMinedEvent) {
	r.lastBlock = ev
}

func (r *reporter) renderRound(round int, block ledger.Block, verifyErr error) {
	if r.quiet {
		return
	}

	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)

	tradesString := ""
	for _, tx := range block.Transactions {
		tradesString += pterm.Sprintfln("%s -> %s   %.2f kWh @ $%.2f = $%.2f",
			pterm.LightCyan(tx.Sender), pterm.LightCyan(tx.Receiver),
			tx.Amount, tx.Price, tx.TotalCost())
	}
	tradesString += pterm.Sprintf("\nOffers left in the pool: %d", r.lastRound.Remaining)

	blockString := pterm.Sprintfln("Index: #%d", block.Index)
	blockString += pterm.Sprintfln("Hash: %s", shortHash(block.Hash))
	blockString += pterm.Sprintfln("Nonce: %d", block.Nonce)
	blockString += pterm.Sprintfln("Transactions: %d", len(block.Transactions))
	blockString += pterm.Sprintf("Mined in: %s", r.lastBlock.Duration.Round(time.Millisecond))

	pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		{
			{Data: pbox.WithTitle(pterm.LightYellow(pterm.Sprintf("|ROUND %d TRADES|", round))).WithTitleTopCenter().Sprintf(tradesString)},
			{Data: pbox.WithTitle(pterm.LightYellow("|BLOCK|")).WithTitleTopCenter().Sprintf(blockString)},
		},
	}).Render()

	if verifyErr != nil {
		pterm.Error.Printfln("Chain verification failed: %s", verifyErr.Error())
	} else {
		pterm.Success.Println("Chain verified, every block linked and mined")
	}
}

func (r *reporter) renderSummary(svc *application.LedgerService, parties []string) {
	if r.quiet {
		return
	}

	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	stats := svc.Stats()

	integrity := pterm.LightGreen("intact")
	if err := svc.VerifyIntegrity(); err != nil {
		integrity = pterm.LightRed("broken")
	}
	statsString := pterm.Sprintfln("Total blocks: %d", stats.Height)
	statsString += pterm.Sprintfln("Total transactions: %d", stats.Transactions)
	statsString += pterm.Sprintfln("Energy traded: %.2f kWh", stats.EnergyKWh)
	statsString += pterm.Sprintfln("Tip hash: %s", shortHash(stats.TipHash))
	statsString += pterm.Sprintf("Chain integrity: %s", integrity)

	balancesString := ""
	for _, party := range parties {
		balance := svc.Balance(party)
		label := pterm.LightGreen("Revenue")
		if balance < 0 {
			label = pterm.LightRed("Cost")
			balance = -balance
		}
		balancesString += pterm.Sprintfln("%s: $%.2f (%s)", pterm.LightCyan(party), balance, label)
	}
	balancesString = strings.TrimRight(balancesString, "\n")

	pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		{
			{Data: pbox.WithTitle(pterm.LightYellow("|LEDGER SUMMARY|")).WithTitleTopCenter().Sprintf(statsString)},
			{Data: pbox.WithTitle(pterm.LightYellow("|ACCOUNT BALANCES|")).WithTitleTopCenter().Sprintf(balancesString)},
		},
	}).Render()
}

func printBanner() {
	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Energy", pterm.FgYellow.ToStyle()),
		putils.LettersFromStringWithStyle("Ledger", pterm.FgDarkGray.ToStyle()),
	).Render()

	pterm.Info.Println("Peer-to-peer energy trading on a proof-of-work ledger")

	// Print a blank line for better readability
	pterm.Println()
}

// shortHash keeps panel rows narrow, the full digest is in the snapshot.
func shortHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16]
}
