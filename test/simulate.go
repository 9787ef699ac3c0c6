package test

import (
	tea "charm.land/bubbletea/v2"
)

const maxSimulatedMessages = 1000

// Drain runs cmd and feeds every message it produces back into update,
// following batches and the commands update returns until none are left.
// Commands run synchronously, so every future they await must be settled.
func Drain(update func(tea.Msg) tea.Cmd, cmd tea.Cmd) []tea.Msg {
	var seen []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 && len(seen) < maxSimulatedMessages {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		seen = append(seen, msg)
		queue = append(queue, update(msg))
	}
	return seen
}

// Collect runs cmd and flattens batches without feeding anything back.
func Collect(cmd tea.Cmd) []tea.Msg {
	return Drain(func(tea.Msg) tea.Cmd { return nil }, cmd)
}
