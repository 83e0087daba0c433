package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// AlertQueue is the dashboard's Notifier. Alerts raised from submission
// goroutines are queued until the dashboard shows them.
type AlertQueue struct {
	mu    sync.Mutex
	count int
	ch    chan string
}

// NewAlertQueue creates an AlertQueue.
func NewAlertQueue() *AlertQueue {
	return &AlertQueue{ch: make(chan string, 16)}
}

// Alert queues message. When the queue is full the alert is dropped but
// still counted.
func (q *AlertQueue) Alert(message string) {
	q.mu.Lock()
	q.count++
	q.mu.Unlock()

	select {
	case q.ch <- message:
	default:
	}
}

// Count returns how many alerts have been raised.
func (q *AlertQueue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

type alertMsg string

// next waits for the following alert.
func (q *AlertQueue) next() tea.Cmd {
	return func() tea.Msg {
		return alertMsg(<-q.ch)
	}
}
