// Package telemetry provides the estimate sources the ledger builds producer
// offers from. A source turns a calendar position (day of year, hour) into an
// estimated energy amount in kWh; the ledger consumes that number untouched
// as the offer amount and performs no unit conversion.
package telemetry

// Source produces deterministic energy estimates. Implementations must
// return the same figure for the same day and hour, so trading rounds can be
// replayed.
type Source interface {
	// Name identifies the producer; it becomes the sender address of the
	// offers built from this source.
	Name() string

	// EstimateKWh returns the estimated output for the given day of year
	// (1..365) and hour (0..23). An estimate of zero, for example with
	// the sun below the horizon, is reported as an error.
	EstimateKWh(day, hour int) (float64, error)
}
