// Package notify delivers trade notifications to the terminal.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"nifty-paper-trader/internal/models"
	"nifty-paper-trader/pkg/utils"
)

// TerminalNotifier prints auto-exit notifications to the terminal, with an
// optional bell.
type TerminalNotifier struct {
	mu          sync.Mutex
	writer      io.Writer
	bellEnabled bool
}

// NewTerminalNotifier creates a terminal notifier writing to stdout.
func NewTerminalNotifier() *TerminalNotifier {
	return &TerminalNotifier{
		writer:      os.Stdout,
		bellEnabled: true,
	}
}

// SetBellEnabled enables or disables the terminal bell.
func (tn *TerminalNotifier) SetBellEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.bellEnabled = enabled
}

// SetWriter redirects notification output.
func (tn *TerminalNotifier) SetWriter(w io.Writer) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.writer = w
}

// NotifyAutoExit announces an automatically closed position.
func (tn *TerminalNotifier) NotifyAutoExit(closed models.ClosedPosition) {
	tn.mu.Lock()
	defer tn.mu.Unlock()

	label := "TARGET"
	if closed.Reason == models.ExitReasonStopLoss {
		label = "STOP-LOSS"
	}

	bell := ""
	if tn.bellEnabled {
		bell = "\a"
	}

	fmt.Fprintf(tn.writer, "%s[%s] %s x%d closed @ %.2f, P&L %s\n",
		bell, label, closed.Position.Symbol, closed.Position.Quantity,
		closed.ExitPrice, utils.FormatPnL(closed.PnL))
}
