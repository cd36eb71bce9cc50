package models

import "time"

// OptionRight identifies the option right of a contract.
type OptionRight string

const (
	// RightCall is a call option (CE in NSE symbology).
	RightCall OptionRight = "CE"
	// RightPut is a put option (PE in NSE symbology).
	RightPut OptionRight = "PE"
)

// Valid reports whether the right is one of the known values.
func (r OptionRight) Valid() bool {
	return r == RightCall || r == RightPut
}

// DepthLevel is a single level of bid or ask depth, best-first.
type DepthLevel struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// OptionQuote holds the quote fields for a single option contract.
// Quotes are read-only; they are derived purely from the feed.
type OptionQuote struct {
	Symbol       string       `json:"symbol"`
	Strike       int          `json:"strike"`
	Right        OptionRight  `json:"right"`
	LastPrice    float64      `json:"last_price"`
	OpenInterest int64        `json:"oi"`
	Volume       int64        `json:"volume"`
	NetChange    float64      `json:"net_change"`
	BidDepth     []DepthLevel `json:"bid_depth,omitempty"`
	AskDepth     []DepthLevel `json:"ask_depth,omitempty"`
}

// QuoteSnapshot is one fetched market-data frame for the underlying index.
// A snapshot is immutable once received and is replaced wholesale on each
// refresh; it is never merged with a prior snapshot.
type QuoteSnapshot struct {
	Spot      float64                `json:"spot"`
	ATMStrike int                    `json:"atm"`
	Strikes   []int                  `json:"strikes"`
	Quotes    map[string]OptionQuote `json:"quotes"`
	FetchedAt time.Time              `json:"fetched_at"`
}

// Quote returns the quote stored under the exact symbol key.
func (s *QuoteSnapshot) Quote(symbol string) (OptionQuote, bool) {
	q, ok := s.Quotes[symbol]
	return q, ok
}
