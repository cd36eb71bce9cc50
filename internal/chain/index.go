// Package chain indexes option-chain snapshots for exact quote resolution.
package chain

import (
	"fmt"
	"strconv"
	"strings"

	"nifty-paper-trader/internal/errors"
	"nifty-paper-trader/internal/models"
)

// Key identifies a single contract within a snapshot. Indexing by
// (strike, right) rather than by symbol substring makes ambiguous lookups
// impossible: a 4-digit strike can never shadow a 5-digit one.
type Key struct {
	Strike int
	Right  models.OptionRight
}

// Index resolves symbols to quotes within one snapshot. It is built once per
// snapshot and is read-only afterwards.
type Index struct {
	snapshot *models.QuoteSnapshot
	quotes   map[Key]models.OptionQuote
}

// New builds an index over the given snapshot.
func New(snapshot *models.QuoteSnapshot) *Index {
	ix := &Index{
		snapshot: snapshot,
		quotes:   make(map[Key]models.OptionQuote, len(snapshot.Quotes)),
	}
	for sym, q := range snapshot.Quotes {
		strike, right := q.Strike, q.Right
		if strike == 0 || !right.Valid() {
			parsed, parsedRight, err := ParseSymbol(sym)
			if err != nil {
				continue
			}
			strike, right = parsed, parsedRight
		}
		ix.quotes[Key{Strike: strike, Right: right}] = q
	}
	return ix
}

// Snapshot returns the snapshot this index was built from.
func (ix *Index) Snapshot() *models.QuoteSnapshot {
	return ix.snapshot
}

// Resolve returns the quote for the given symbol, or false if the contract is
// absent from the snapshot. Resolution is exact: the symbol is parsed into a
// (strike, right) key and looked up directly.
func (ix *Index) Resolve(symbol string) (models.OptionQuote, bool) {
	strike, right, err := ParseSymbol(symbol)
	if err != nil {
		return models.OptionQuote{}, false
	}
	return ix.Lookup(strike, right)
}

// Lookup returns the quote for an explicit (strike, right) pair.
func (ix *Index) Lookup(strike int, right models.OptionRight) (models.OptionQuote, bool) {
	q, ok := ix.quotes[Key{Strike: strike, Right: right}]
	return q, ok
}

// LastPrice returns the last traded price for a symbol, or false if the
// contract is absent from the snapshot.
func (ix *Index) LastPrice(symbol string) (float64, bool) {
	q, ok := ix.Resolve(symbol)
	if !ok {
		return 0, false
	}
	return q.LastPrice, true
}

// Len returns the number of indexed contracts.
func (ix *Index) Len() int {
	return len(ix.quotes)
}

// Symbol formats the canonical symbol for a (strike, right) pair,
// e.g. Symbol(24800, RightCall) == "24800CE".
func Symbol(strike int, right models.OptionRight) string {
	return fmt.Sprintf("%d%s", strike, right)
}

// ParseSymbol splits a canonical symbol into its strike and right.
func ParseSymbol(symbol string) (int, models.OptionRight, error) {
	var right models.OptionRight
	switch {
	case strings.HasSuffix(symbol, string(models.RightCall)):
		right = models.RightCall
	case strings.HasSuffix(symbol, string(models.RightPut)):
		right = models.RightPut
	default:
		return 0, "", errors.Wrapf(errors.ErrSymbolNotFound, "symbol %q has no CE/PE suffix", symbol)
	}

	strike, err := strconv.Atoi(strings.TrimSuffix(symbol, string(right)))
	if err != nil || strike <= 0 {
		return 0, "", errors.Wrapf(errors.ErrSymbolNotFound, "symbol %q has no valid strike", symbol)
	}
	return strike, right, nil
}

// ATMStrike rounds the spot price to the nearest strike on the given step.
func ATMStrike(spot float64, step int) int {
	if step <= 0 {
		return 0
	}
	n := int(spot/float64(step) + 0.5)
	return n * step
}

// StrikeWindow returns window strikes either side of the ATM strike,
// inclusive, in ascending order.
func StrikeWindow(atm, step, window int) []int {
	strikes := make([]int, 0, 2*window+1)
	for i := -window; i <= window; i++ {
		strikes = append(strikes, atm+i*step)
	}
	return strikes
}
