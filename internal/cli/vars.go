package cli

import (
	"errors"
	"sync/atomic"

	"github.com/valter-silva-au/goal-board/internal/core"
	"github.com/valter-silva-au/goal-board/internal/observability"
)

// Board services, set during app initialization in app.go.
var (
	BasePath string
	Store    core.TaskStore
	Bus      *core.Bus
	Quotes   *core.QuoteRotator
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
)

var terminalNotifications atomic.Bool

func init() {
	terminalNotifications.Store(true)
}

// TerminalNotificationsEnabled reports whether celebrations may be printed to
// the terminal. It is false while the interactive board or the MCP server
// owns stdout.
func TerminalNotificationsEnabled() bool {
	return terminalNotifications.Load()
}

// muteTerminalNotifications turns terminal celebrations off until the
// returned func is called.
func muteTerminalNotifications() (restore func()) {
	terminalNotifications.Store(false)
	return func() { terminalNotifications.Store(true) }
}

var errStoreNotInitialized = errors.New("task store not initialized")

func requireStore() error {
	if Store == nil {
		return errStoreNotInitialized
	}
	return nil
}
