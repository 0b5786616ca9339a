package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Command represents a slash command
type Command struct {
	Name        string
	Description string
	Handler     func(*TUIModel, []string) tea.Cmd
}

// CommandRegistry holds all available commands
type CommandRegistry struct {
	Commands map[string]Command
	order    []string
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() CommandRegistry {
	registry := CommandRegistry{
		Commands: make(map[string]Command),
	}

	registry.RegisterCommand("/help", "Show keys and commands", handleHelpCommand)
	registry.RegisterCommand("/theme", "Switch between light and dark theme", handleThemeCommand)
	registry.RegisterCommand("/sidebar", "Show or hide the reports list", handleSidebarCommand)
	registry.RegisterCommand("/delete", "Delete a report: /delete <id>", handleDeleteCommand)
	registry.RegisterCommand("/export", "Export the conversation: /export [md|html]", handleExportCommand)
	registry.RegisterCommand("/server", "Show or set the backend URL: /server [url]", handleServerCommand)
	registry.RegisterCommand("/quit", "Quit the application", handleQuitCommand)

	return registry
}

// RegisterCommand registers a new command
func (cr *CommandRegistry) RegisterCommand(name, description string, handler func(*TUIModel, []string) tea.Cmd) {
	if _, exists := cr.Commands[name]; !exists {
		cr.order = append(cr.order, name)
	}
	cr.Commands[name] = Command{
		Name:        name,
		Description: description,
		Handler:     handler,
	}
}

// GetCommand gets a command by name
func (cr CommandRegistry) GetCommand(name string) (Command, bool) {
	cmd, exists := cr.Commands[name]
	return cmd, exists
}

// GetAllCommands returns all registered commands
func (cr CommandRegistry) GetAllCommands() []Command {
	var commands []Command
	for _, name := range cr.order {
		if cmd, ok := cr.Commands[name]; ok {
			commands = append(commands, cmd)
		}
	}
	return commands
}

// Command handlers

func handleHelpCommand(model *TUIModel, args []string) tea.Cmd {
	model.addSystemMessage(RenderHelp(model.commandRegistry.GetAllCommands()))
	return nil
}

func handleThemeCommand(model *TUIModel, args []string) tea.Cmd {
	model.toggleTheme()
	return nil
}

func handleSidebarCommand(model *TUIModel, args []string) tea.Cmd {
	model.toggleSidebar()
	return nil
}

func handleDeleteCommand(model *TUIModel, args []string) tea.Cmd {
	if len(args) == 0 {
		if item, ok := model.sidebar.SelectedItem(); ok {
			return model.deleteReport(item.ID)
		}
		model.toastManager.AddToast("Usage: /delete <id>", ToastWarning, toastTimeout)
		return nil
	}
	return model.deleteReport(args[0])
}

func handleExportCommand(model *TUIModel, args []string) tea.Cmd {
	format := ""
	if len(args) > 0 {
		format = args[0]
	}
	exportFormat, err := parseExportFormat(format)
	if err != nil {
		model.toastManager.AddToast(err.Error(), ToastError, toastTimeout)
		return nil
	}

	path, err := exportConversation(model.chat.Messages, exportFormat, os.TempDir(), time.Now())
	if err != nil {
		model.toastManager.AddToast(err.Error(), ToastError, toastTimeout)
		return nil
	}
	model.toastManager.AddToast("Exported to "+path, ToastSuccess, toastTimeout)
	return nil
}

func handleServerCommand(model *TUIModel, args []string) tea.Cmd {
	if len(args) == 0 {
		model.toastManager.AddToast("Backend: "+model.config.Server.BaseURL, ToastInfo, toastTimeout)
		return nil
	}

	u, err := url.Parse(args[0])
	if err != nil || u.Scheme == "" || u.Host == "" {
		model.toastManager.AddToast(fmt.Sprintf("Invalid URL: %s", args[0]), ToastError, toastTimeout)
		return nil
	}
	baseURL := strings.TrimRight(u.String(), "/")

	model.config.Server.BaseURL = baseURL
	if model.reconnect != nil {
		model.client = model.reconnect(baseURL)
	}
	model.status.Server = baseURL
	if err := SaveConfig(model.config); err != nil {
		model.toastManager.AddToast("Backend changed for this session only: "+err.Error(), ToastWarning, toastTimeout)
		return nil
	}
	model.toastManager.AddToast("Backend set to "+baseURL, ToastSuccess, toastTimeout)
	return nil
}

func handleQuitCommand(model *TUIModel, args []string) tea.Cmd {
	return tea.Quit
}
