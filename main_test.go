package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestRunPromptPrintsReport(t *testing.T) {
	client := &fakeReportClient{resp: &PromptResponse{
		Response:       "## Headcount\n\nUp **3**",
		NewHistoryItem: &NewHistoryItem{ID: "42", Title: "Headcount"},
	}}
	history := &fakeHistory{}
	var out bytes.Buffer

	err := runPrompt(context.Background(), client, NewAppState(nil, ThemeLight), history, "  headcount  ", &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"headcount"}, client.prompts)
	text := ansi.Strip(out.String())
	assert.Contains(t, text, "Up 3")
	assert.Contains(t, text, "Saved as report 42")
	require.Len(t, history.items, 1)
	assert.Equal(t, "Headcount", history.items[0].Title)
}

func TestRunPromptRejectsBlank(t *testing.T) {
	client := &fakeReportClient{}
	var out bytes.Buffer
	err := runPrompt(context.Background(), client, NewAppState(nil, ThemeLight), nil, " \n ", &out)
	require.Error(t, err)
	assert.Zero(t, client.promptCount())
	assert.Empty(t, out.String())
}

func TestRunPromptReturnsClientError(t *testing.T) {
	remote := &RemoteError{StatusCode: 500}
	client := &fakeReportClient{err: remote}
	var out bytes.Buffer

	err := runPrompt(context.Background(), client, NewAppState(nil, ThemeDark), nil, "x", &out)
	assert.True(t, errors.Is(err, remote))
	assert.Empty(t, out.String())
}

func TestRunPromptAgainstDevServer(t *testing.T) {
	server, _ := newDevTestServer(t)
	var out bytes.Buffer

	err := runPrompt(context.Background(), NewAPIClient(server.URL, ""), NewAppState(nil, ThemeLight), nil, "Orders chart", &out)
	require.NoError(t, err)
	text := ansi.Strip(out.String())
	assert.Contains(t, text, "Revenue")
	assert.Contains(t, text, "Costs")
	assert.NotContains(t, text, chartFailedText)
}

func TestOpenServicesWithoutStore(t *testing.T) {
	keyring.MockInit()
	config := mockConfig()
	config.Storage.Path = t.TempDir() // a directory cannot be opened as a database file
	svc := openServices(config)
	defer svc.Close()

	assert.Nil(t, svc.store)
	assert.Nil(t, svc.history())
	require.NotNil(t, svc.state)
	require.NotNil(t, svc.client)
}
