package browse

import (
	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

// confirmResultMsg closes the confirmation. Confirmed is false when the
// user canceled.
type confirmResultMsg struct {
	Confirmed bool
	Index     int
	ID        string
}

// confirmDialog asks whether the catalog item at index should be deleted.
type confirmDialog struct {
	index      int
	id         string
	title      string
	selectedNo bool
	keymap     confirmKeyMap
}

func newConfirmDialog(index int, id, title string) *confirmDialog {
	return &confirmDialog{
		index:      index,
		id:         id,
		title:      title,
		selectedNo: true,
		keymap:     defaultConfirmKeyMap(),
	}
}

func (d *confirmDialog) result(confirmed bool) tea.Cmd {
	msg := confirmResultMsg{Confirmed: confirmed, Index: d.index, ID: d.id}
	return func() tea.Msg { return msg }
}

func (d *confirmDialog) Update(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, d.keymap.LeftRight, d.keymap.Tab):
		d.selectedNo = !d.selectedNo
		return nil
	case key.Matches(msg, d.keymap.EnterSpace):
		return d.result(!d.selectedNo)
	case key.Matches(msg, d.keymap.Yes):
		return d.result(true)
	case key.Matches(msg, d.keymap.No, d.keymap.Close):
		return d.result(false)
	}
	return nil
}

func (d *confirmDialog) question() string {
	return "Delete item \"" + d.title + "\"?"
}

func (d *confirmDialog) View() string {
	base := lipgloss.NewStyle()
	yesStyle := base.Foreground(charmtone.Ash)
	noStyle := yesStyle

	if d.selectedNo {
		noStyle = noStyle.Foreground(charmtone.Butter).Background(charmtone.Charple)
		yesStyle = yesStyle.Background(charmtone.Iron)
	} else {
		yesStyle = yesStyle.Foreground(charmtone.Butter).Background(charmtone.Charple)
		noStyle = noStyle.Background(charmtone.Iron)
	}

	question := d.question()
	const horizontalPadding = 3
	yesButton := yesStyle.Padding(0, horizontalPadding).Render("Delete")
	noButton := noStyle.Padding(0, horizontalPadding).Render("Cancel")

	buttons := base.Width(lipgloss.Width(question)).Align(lipgloss.Right).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, yesButton, "  ", noButton),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		question,
		"",
		buttons,
	)

	return base.
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(charmtone.Charple).
		Render(content)
}
