package stream

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickInterval is the fixed short interval between controller advances.
const TickInterval = 30 * time.Millisecond

// TickMsg is sent to trigger the next controller advance.
type TickMsg struct{}

// Tick returns a tea.Cmd that sends a TickMsg after TickInterval.
// Each tick fully completes before the next fires; the host should stop
// scheduling ticks once the controller has caught up and the producer is
// still running, and resume when new target text arrives.
func Tick() tea.Cmd {
	return TickEvery(TickInterval)
}

// TickEvery is Tick with a host-configured interval. Non-positive
// durations fall back to TickInterval.
func TickEvery(d time.Duration) tea.Cmd {
	if d <= 0 {
		d = TickInterval
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}
