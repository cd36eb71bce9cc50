package chain

import (
	"testing"
	"time"

	"nifty-paper-trader/internal/errors"
	"nifty-paper-trader/internal/models"
)

func testSnapshot() *models.QuoteSnapshot {
	quotes := map[string]models.OptionQuote{
		"4800CE":  {Symbol: "4800CE", Strike: 4800, Right: models.RightCall, LastPrice: 9.5},
		"24800CE": {Symbol: "24800CE", Strike: 24800, Right: models.RightCall, LastPrice: 120},
		"24800PE": {Symbol: "24800PE", Strike: 24800, Right: models.RightPut, LastPrice: 95},
		"24850CE": {Symbol: "24850CE", Strike: 24850, Right: models.RightCall, LastPrice: 88},
	}
	return &models.QuoteSnapshot{
		Spot:      24812.5,
		ATMStrike: 24800,
		Strikes:   []int{24800, 24850},
		Quotes:    quotes,
		FetchedAt: time.Now(),
	}
}

func TestIndexResolveIsExact(t *testing.T) {
	ix := New(testSnapshot())

	q, ok := ix.Resolve("24800CE")
	if !ok {
		t.Fatal("24800CE not resolved")
	}
	if q.LastPrice != 120 {
		t.Errorf("resolved wrong quote: %+v", q)
	}

	// A shorter strike that is a suffix-plus-digits of another must resolve
	// to its own contract, never to a longer symbol containing it.
	q, ok = ix.Resolve("4800CE")
	if !ok {
		t.Fatal("4800CE not resolved")
	}
	if q.LastPrice != 9.5 {
		t.Errorf("4800CE resolved to the wrong contract: %+v", q)
	}
}

func TestIndexOverlappingDigitSymbols(t *testing.T) {
	snap := testSnapshot()
	snap.Quotes["224800CE"] = models.OptionQuote{
		Symbol: "224800CE", Strike: 224800, Right: models.RightCall, LastPrice: 1.05,
	}
	ix := New(snap)

	q, ok := ix.Resolve("24800CE")
	if !ok || q.LastPrice != 120 {
		t.Errorf("24800CE shadowed by 224800CE: %+v ok=%v", q, ok)
	}
	q, ok = ix.Resolve("224800CE")
	if !ok || q.LastPrice != 1.05 {
		t.Errorf("224800CE not resolved to its own quote: %+v ok=%v", q, ok)
	}
}

func TestIndexResolveDistinguishesRights(t *testing.T) {
	ix := New(testSnapshot())

	ce, _ := ix.Resolve("24800CE")
	pe, _ := ix.Resolve("24800PE")
	if ce.LastPrice == pe.LastPrice {
		t.Errorf("CE and PE quotes conflated")
	}
	if ce.Right != models.RightCall || pe.Right != models.RightPut {
		t.Errorf("rights swapped: %v %v", ce.Right, pe.Right)
	}
}

func TestIndexResolveAbsentContract(t *testing.T) {
	ix := New(testSnapshot())

	if _, ok := ix.Resolve("25000CE"); ok {
		t.Error("absent contract resolved")
	}
	if _, ok := ix.Resolve("garbage"); ok {
		t.Error("malformed symbol resolved")
	}
	if _, ok := ix.LastPrice("25000PE"); ok {
		t.Error("absent contract has a price")
	}
}

func TestIndexLen(t *testing.T) {
	ix := New(testSnapshot())
	if ix.Len() != 4 {
		t.Errorf("expected 4 contracts, got %d", ix.Len())
	}
}

func TestParseSymbol(t *testing.T) {
	strike, right, err := ParseSymbol("24800CE")
	if err != nil || strike != 24800 || right != models.RightCall {
		t.Errorf("ParseSymbol(24800CE) = %d, %s, %v", strike, right, err)
	}

	strike, right, err = ParseSymbol("24750PE")
	if err != nil || strike != 24750 || right != models.RightPut {
		t.Errorf("ParseSymbol(24750PE) = %d, %s, %v", strike, right, err)
	}

	for _, bad := range []string{"", "CE", "PE", "24800", "24800XX", "-50CE", "abcCE"} {
		if _, _, err := ParseSymbol(bad); !errors.Is(err, errors.ErrSymbolNotFound) {
			t.Errorf("ParseSymbol(%q) should fail with ErrSymbolNotFound, got %v", bad, err)
		}
	}
}

func TestSymbolRoundTrip(t *testing.T) {
	symbol := Symbol(24800, models.RightCall)
	if symbol != "24800CE" {
		t.Errorf("Symbol(24800, CE) = %s", symbol)
	}
	strike, right, err := ParseSymbol(symbol)
	if err != nil || strike != 24800 || right != models.RightCall {
		t.Errorf("round trip failed: %d %s %v", strike, right, err)
	}
}

func TestATMStrike(t *testing.T) {
	cases := []struct {
		spot float64
		want int
	}{
		{24812.5, 24800},
		{24825.0, 24850}, // exact midpoint rounds up
		{24824.9, 24800},
		{24775.0, 24800},
		{50, 50},
	}
	for _, tc := range cases {
		if got := ATMStrike(tc.spot, 50); got != tc.want {
			t.Errorf("ATMStrike(%.1f, 50) = %d, want %d", tc.spot, got, tc.want)
		}
	}

	if got := ATMStrike(24812.5, 0); got != 0 {
		t.Errorf("zero step must yield 0, got %d", got)
	}
}

func TestStrikeWindow(t *testing.T) {
	strikes := StrikeWindow(24800, 50, 2)
	want := []int{24700, 24750, 24800, 24850, 24900}
	if len(strikes) != len(want) {
		t.Fatalf("expected %d strikes, got %d", len(want), len(strikes))
	}
	for i := range want {
		if strikes[i] != want[i] {
			t.Errorf("strikes[%d] = %d, want %d", i, strikes[i], want[i])
		}
	}
}
