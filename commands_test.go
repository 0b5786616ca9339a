package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRegistryOrder(t *testing.T) {
	registry := NewCommandRegistry()
	commands := registry.GetAllCommands()
	require.NotEmpty(t, commands)
	assert.Equal(t, "/help", commands[0].Name)

	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"/help", "/theme", "/sidebar", "/delete", "/export", "/server", "/quit"}, names)
}

func TestRegisterCommandReplacesWithoutDuplicating(t *testing.T) {
	registry := NewCommandRegistry()
	before := len(registry.GetAllCommands())

	registry.RegisterCommand("/help", "Custom help", handleHelpCommand)
	assert.Len(t, registry.GetAllCommands(), before)

	cmd, ok := registry.GetCommand("/help")
	require.True(t, ok)
	assert.Equal(t, "Custom help", cmd.Description)

	_, ok = registry.GetCommand("/missing")
	assert.False(t, ok)
}

func TestRenderHelpListsEveryCommand(t *testing.T) {
	commands := NewCommandRegistry().GetAllCommands()
	help := RenderHelp(commands)

	assert.True(t, strings.HasPrefix(help, "### Keys"))
	for _, c := range commands {
		assert.Contains(t, help, "`"+c.Name+"` "+c.Description)
	}
}

func TestDeleteCommandUsesSelection(t *testing.T) {
	client := &fakeReportClient{}
	history := &fakeHistory{items: []HistoryItem{{ID: "9", Title: "Nine"}}}
	model := newTestModel(t, client, history)

	cmd := handleDeleteCommand(&model, nil)
	require.NotNil(t, cmd)
	assert.Equal(t, "9", findMsg[reportDeletedMsg](t, cmd).id)
}

func TestServerCommandWithoutArgsShowsBackend(t *testing.T) {
	model := newTestModel(t, &fakeReportClient{}, nil)

	assert.Nil(t, handleServerCommand(&model, nil))
	require.Len(t, model.toastManager.Toasts, 1)
	assert.Equal(t, "Backend: "+defaultBaseURL, model.toastManager.Toasts[0].Message)
}
