package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFormatIndianCurrency(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "₹0.00"},
		{999, "₹999.00"},
		{1000, "₹1,000.00"},
		{100000, "₹1,00,000.00"},
		{1000000, "₹10,00,000.00"},
		{10000000, "₹1,00,00,000.00"},
		{992200, "₹9,92,200.00"},
		{-975, "-₹975.00"},
		{120.5, "₹120.50"},
	}
	for _, tc := range cases {
		if got := FormatIndianCurrency(tc.amount); got != tc.want {
			t.Errorf("FormatIndianCurrency(%v) = %s, want %s", tc.amount, got, tc.want)
		}
	}
}

func TestFormatPnL(t *testing.T) {
	if got := FormatPnL(650); got != "+₹650.00" {
		t.Errorf("FormatPnL(650) = %s", got)
	}
	if got := FormatPnL(-975); got != "-₹975.00" {
		t.Errorf("FormatPnL(-975) = %s", got)
	}
	if got := FormatPnL(0); got != "₹0.00" {
		t.Errorf("FormatPnL(0) = %s", got)
	}
}

func TestFormatVolume(t *testing.T) {
	cases := []struct {
		volume int64
		want   string
	}{
		{500, "500"},
		{99999, "99,999"},
		{150000, "1.50 L"},
		{12500000, "1.25 Cr"},
	}
	for _, tc := range cases {
		if got := FormatVolume(tc.volume); got != tc.want {
			t.Errorf("FormatVolume(%d) = %s, want %s", tc.volume, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(4.2); got != "+4.20%" {
		t.Errorf("FormatPercent(4.2) = %s", got)
	}
	if got := FormatPercent(-2.1); got != "-2.10%" {
		t.Errorf("FormatPercent(-2.1) = %s", got)
	}
}

// Property: currency formatting follows the Indian numbering system and the
// numeric value survives a round trip through the formatted string.
func TestProperty_IndianCurrencyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	indianPattern := regexp.MustCompile(`^(\d{1,2},)*\d{1,3}$`)

	properties.Property("format is valid and value-preserving", prop.ForAll(
		func(amount float64) bool {
			if math.IsNaN(amount) || math.IsInf(amount, 0) || math.Abs(amount) > 1e12 {
				return true
			}

			formatted := FormatIndianCurrency(amount)

			numPart := strings.TrimPrefix(formatted, "-")
			if !strings.HasPrefix(numPart, "₹") {
				return false
			}
			numPart = strings.TrimPrefix(numPart, "₹")

			parts := strings.Split(numPart, ".")
			if len(parts) != 2 || len(parts[1]) != 2 {
				return false
			}
			if !indianPattern.MatchString(parts[0]) {
				return false
			}

			parsed, err := strconv.ParseFloat(strings.ReplaceAll(numPart, ",", ""), 64)
			if err != nil {
				return false
			}
			if amount < 0 {
				parsed = -parsed
			}
			return math.Abs(parsed-amount) <= 0.0051+1e-9*math.Abs(amount)
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}
