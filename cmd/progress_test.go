package cmd

import (
	"testing"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchProgressDrainsQueuedEvents(t *testing.T) {
	events := make(chan domain.DispatchEvent, 4)
	events <- domain.DispatchEvent{Index: 0, Total: 3, Result: domain.DispatchResult{Phone: "+1", Target: "a", Outcome: domain.Success("sent to a")}}
	events <- domain.DispatchEvent{Index: 1, Total: 3, Result: domain.DispatchResult{Phone: "+2", Target: "b", Outcome: domain.Failure(domain.ReasonProtocol, "boom")}}

	model := newDispatchProgressModel("Broadcast", 3, events, &domain.CancelFlag{})
	updated, cmd := model.Update(drainTickMsg(time.Now()))
	require.NotNil(t, cmd)

	m := updated.(dispatchProgressModel)
	assert.Equal(t, 2, m.done)
	assert.Equal(t, 1, m.failed)
	assert.False(t, m.finished)
	assert.Contains(t, m.View(), "2/3 (failed 1)")
	assert.Contains(t, m.View(), "FAIL +2 -> b: boom")
}

func TestDispatchProgressQuitsWhenQueueCloses(t *testing.T) {
	events := make(chan domain.DispatchEvent, 1)
	events <- domain.DispatchEvent{Index: 0, Total: 1, Result: domain.DispatchResult{Phone: "+1", Target: "a", Outcome: domain.Success("ok")}}
	close(events)

	model := newDispatchProgressModel("Broadcast", 1, events, &domain.CancelFlag{})
	updated, _ := model.Update(drainTickMsg(time.Now()))

	m := updated.(dispatchProgressModel)
	assert.True(t, m.finished)
	assert.Equal(t, 1, m.done)
	assert.Empty(t, m.View())
}

func TestDispatchProgressKeyRaisesCancelFlag(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	} {
		cancel := &domain.CancelFlag{}
		model := newDispatchProgressModel("Broadcast", 1, make(chan domain.DispatchEvent), cancel)

		updated, _ := model.Update(key)

		assert.True(t, cancel.Cancelled(), key.String())
		assert.Contains(t, updated.(dispatchProgressModel).View(), "stopping after the current send")
	}
}

func TestFormatDispatchResult(t *testing.T) {
	ok := formatDispatchResult(domain.DispatchResult{Phone: "+1", Target: "@news", Outcome: domain.Success("sent to @news")})
	assert.Equal(t, "OK +1 -> @news: sent to @news", ok)
}
