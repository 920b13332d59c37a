package ui

import tea "github.com/charmbracelet/bubbletea"

// toastMsg asks the app to show a transient notification.
type toastMsg struct {
	level string
	text  string
}

// uiNotifier queues editor notifications until the model can emit them as
// commands.
type uiNotifier struct {
	pending []toastMsg
}

func (n *uiNotifier) Success(message string) {
	n.pending = append(n.pending, toastMsg{level: "success", text: message})
}

func (n *uiNotifier) Error(message string) {
	n.pending = append(n.pending, toastMsg{level: "error", text: message})
}

// drain returns one command per queued notification and empties the queue.
func (n *uiNotifier) drain() tea.Cmd {
	if n == nil || len(n.pending) == 0 {
		return nil
	}
	queued := n.pending
	n.pending = nil
	cmds := make([]tea.Cmd, 0, len(queued))
	for _, t := range queued {
		t := t
		cmds = append(cmds, func() tea.Msg { return t })
	}
	if len(cmds) == 1 {
		return cmds[0]
	}
	return tea.Batch(cmds...)
}
