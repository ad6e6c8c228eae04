package energy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransaction is returned when a transaction fails validation.
// It is wrapped with the specific reason, so match it with errors.Is.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Kind discriminates open trade offers from settled trades.
type Kind string

const (
	KindOffer      Kind = "OFFER"
	KindSettlement Kind = "SETTLEMENT"
)

// Side tells which way an OFFER trades energy. Settlements carry no side.
type Side string

const (
	SideSell Side = "SELL"
	SideBuy  Side = "BUY"
)

// Transaction è il record immutabile di uno scambio di energia.
// Field order is fixed: block hashing serializes transactions to JSON and
// relies on this order being stable across runs.
type Transaction struct {
	ID        string  `json:"id"`
	Sender    string  `json:"sender"`
	Receiver  string  `json:"receiver,omitempty"` // empty while an offer is open
	Amount    float64 `json:"amount"`             // kWh, always > 0
	Price     float64 `json:"price"`              // per kWh, never negative
	Kind      Kind    `json:"kind"`
	Side      Side    `json:"side,omitempty"`
	Timestamp int64   `json:"ts"`
}

// NewSellOffer creates an open OFFER from a producer with surplus energy.
// amountKWh is the surplus on offer and minPrice the least the producer
// accepts per kWh. The receiver stays empty until a settlement names the
// counterparty.
func NewSellOffer(sender string, amountKWh, minPrice float64) (Transaction, error) {
	tx := Transaction{
		ID:        uuid.NewString(),
		Sender:    sender,
		Amount:    amountKWh,
		Price:     minPrice,
		Kind:      KindOffer,
		Side:      SideSell,
		Timestamp: time.Now().Unix(),
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// NewBuyOffer creates an open OFFER from a consumer requesting energy.
// amountKWh is the quantity requested and maxPrice the most the consumer
// pays per kWh.
func NewBuyOffer(sender string, amountKWh, maxPrice float64) (Transaction, error) {
	tx := Transaction{
		ID:        uuid.NewString(),
		Sender:    sender,
		Amount:    amountKWh,
		Price:     maxPrice,
		Kind:      KindOffer,
		Side:      SideBuy,
		Timestamp: time.Now().Unix(),
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// NewSettlement creates a SETTLEMENT recording a completed trade of
// amountKWh from producer to consumer at the given unit price. Settlements
// are normally created by Match, not by callers.
func NewSettlement(producer, consumer string, amountKWh, price float64) (Transaction, error) {
	tx := Transaction{
		ID:        uuid.NewString(),
		Sender:    producer,
		Receiver:  consumer,
		Amount:    amountKWh,
		Price:     price,
		Kind:      KindSettlement,
		Timestamp: time.Now().Unix(),
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Validate checks the transaction against the domain rules: positive finite
// amount, non-negative finite price, a named sender, no self-trade, and a
// kind/side combination that makes sense. Failures wrap
// ErrInvalidTransaction with the specific reason.
func (t Transaction) Validate() error {
	if t.Sender == "" {
		return fmt.Errorf("%w: sender must not be empty", ErrInvalidTransaction)
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) || t.Amount <= 0 {
		return fmt.Errorf("%w: amount must be a positive number of kWh, got %v", ErrInvalidTransaction, t.Amount)
	}
	if math.IsNaN(t.Price) || math.IsInf(t.Price, 0) || t.Price < 0 {
		return fmt.Errorf("%w: price per kWh must not be negative, got %v", ErrInvalidTransaction, t.Price)
	}
	if t.Sender == t.Receiver {
		return fmt.Errorf("%w: %s cannot trade with itself", ErrInvalidTransaction, t.Sender)
	}
	switch t.Kind {
	case KindOffer:
		if t.Side != SideSell && t.Side != SideBuy {
			return fmt.Errorf("%w: offer needs a SELL or BUY side, got %q", ErrInvalidTransaction, t.Side)
		}
	case KindSettlement:
		if t.Receiver == "" {
			return fmt.Errorf("%w: settlement must name a consumer", ErrInvalidTransaction)
		}
		if t.Side != "" {
			return fmt.Errorf("%w: settlement must not carry a side, got %q", ErrInvalidTransaction, t.Side)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTransaction, t.Kind)
	}
	return nil
}

// TotalCost returns the monetary value of the transaction. It is derived on
// demand and never stored, so the hash preimage carries no redundant field.
func (t Transaction) TotalCost() float64 {
	return t.Amount * t.Price
}
