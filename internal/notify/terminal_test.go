package notify

import (
	"bytes"
	"strings"
	"testing"

	"nifty-paper-trader/internal/models"
)

func TestNotifyAutoExit(t *testing.T) {
	var buf bytes.Buffer
	notifier := NewTerminalNotifier()
	notifier.SetWriter(&buf)
	notifier.SetBellEnabled(false)

	notifier.NotifyAutoExit(models.ClosedPosition{
		Position: models.Position{
			ID:       "POS-1",
			Symbol:   "24800CE",
			Quantity: 65,
		},
		ExitPrice: 105,
		PnL:       -975,
		Reason:    models.ExitReasonStopLoss,
	})

	out := buf.String()
	if !strings.Contains(out, "STOP-LOSS") {
		t.Errorf("missing reason label: %q", out)
	}
	if !strings.Contains(out, "24800CE x65") {
		t.Errorf("missing contract info: %q", out)
	}
	if !strings.Contains(out, "-₹975.00") {
		t.Errorf("missing pnl: %q", out)
	}
	if strings.Contains(out, "\a") {
		t.Errorf("bell emitted while disabled")
	}
}

func TestNotifyAutoExitBell(t *testing.T) {
	var buf bytes.Buffer
	notifier := NewTerminalNotifier()
	notifier.SetWriter(&buf)

	notifier.NotifyAutoExit(models.ClosedPosition{
		Position:  models.Position{Symbol: "24800CE", Quantity: 65},
		ExitPrice: 150,
		PnL:       1950,
		Reason:    models.ExitReasonTarget,
	})

	out := buf.String()
	if !strings.HasPrefix(out, "\a") {
		t.Errorf("bell missing: %q", out)
	}
	if !strings.Contains(out, "TARGET") {
		t.Errorf("missing reason label: %q", out)
	}
}
