package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	evbus "github.com/asaskevich/EventBus"
	"github.com/pterm/pterm"

	"github.com/voltgrid/energyledger/application"
	"github.com/voltgrid/energyledger/domain/energy"
	"github.com/voltgrid/energyledger/telemetry"
)

// demoDay is the day of year the scripted rounds are played on, close to the
// summer solstice so every panel has output.
const demoDay = 172

type consumerBid struct {
	name     string
	amount   float64
	maxPrice float64
}

func runDemo() error {
	if flags.difficulty < 0 || flags.difficulty > 64 {
		return fmt.Errorf("difficulty must be between 0 and 64 leading zero hex digits, got %d", flags.difficulty)
	}

	if !flags.quiet {
		printBanner()
	}

	// Create a new slog handler with the default PTerm logger
	handler := pterm.NewSlogHandler(&pterm.DefaultLogger)
	logger := slog.New(handler)
	if flags.quiet {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	bus := evbus.New()
	reporter := newReporter(flags.quiet)
	if err := reporter.subscribe(bus); err != nil {
		return fmt.Errorf("wiring reporter: %w", err)
	}

	opts := []application.Option{
		application.WithDifficulty(flags.difficulty),
		application.WithMiningWorkers(flags.workers),
		application.WithEventBus(bus),
		application.WithLogger(logger),
	}
	if flags.maxAttempts > 0 {
		opts = append(opts, application.WithMaxAttempts(flags.maxAttempts))
	}
	svc := application.NewLedgerService(opts...)

	producers := []struct {
		source   telemetry.Source
		askPrice float64
	}{
		{telemetry.PanelReadings{PanelID: "Solar_Panel_A", Latitude: 28.61, PeakKWh: 25}, 0.10},
		{telemetry.PanelReadings{PanelID: "Solar_Panel_B", Latitude: 45.46, PeakKWh: 18}, 0.12},
		{telemetry.ForecastModel{ModelID: "Rooftop_Array_C", CloudCover: 35, Humidity: 55}, 0.09},
	}
	bids := []consumerBid{
		{"Home_User_1", 6.5, 0.15},
		{"Business_User_1", 12, 0.13},
		{"Home_User_2", 3, 0.11},
	}

	parties := []string{"Solar_Panel_A", "Solar_Panel_B", "Rooftop_Array_C",
		"Home_User_1", "Business_User_1", "Home_User_2"}

	ctx := context.Background()
	for round := 1; round <= flags.rounds; round++ {
		hour := 9 + round%8

		for _, p := range producers {
			if _, err := svc.SubmitEstimate(p.source, demoDay, hour, p.askPrice); err != nil {
				logger.Warn("estimate skipped", "source", p.source.Name(), "err", err)
			}
		}
		for _, bid := range bids {
			offer, err := energy.NewBuyOffer(bid.name, bid.amount, bid.maxPrice)
			if err != nil {
				return fmt.Errorf("building bid for %s: %w", bid.name, err)
			}
			if err := svc.Submit(offer); err != nil {
				return fmt.Errorf("submitting bid for %s: %w", bid.name, err)
			}
		}

		var spinner *pterm.SpinnerPrinter
		if !flags.quiet {
			spinner, _ = pterm.DefaultSpinner.Start(
				pterm.Sprintf("Round %d: matching offers and mining at difficulty %d ...", round, flags.difficulty))
		}

		block, err := svc.SettleAndMine(ctx)
		switch {
		case errors.Is(err, application.ErrNothingToSettle):
			if spinner != nil {
				spinner.Warning("No compatible offers this round, pool kept for the next one")
			}
			continue
		case err != nil:
			if spinner != nil {
				spinner.Fail()
			}
			return fmt.Errorf("round %d: %w", round, err)
		}
		if spinner != nil {
			spinner.Success()
		}

		reporter.renderRound(round, block, svc.VerifyIntegrity())
	}

	reporter.renderSummary(svc, parties)

	if flags.export != "" {
		data, err := svc.Snapshot()
		if err != nil {
			return fmt.Errorf("taking snapshot: %w", err)
		}
		if err := os.WriteFile(flags.export, data, 0o644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		pterm.Success.Printfln("Chain snapshot written to %s", flags.export)
	}

	return svc.VerifyIntegrity()
}
