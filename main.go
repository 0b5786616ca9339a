package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

const version = "0.1.0"

// width used when rendering for a pipe or a file
const oneShotWidth = 100

type runCmd struct{}

type versionCmd struct{}

type deleteCmd struct {
	ID string `arg:"" help:"Id of the report to delete"`
}

type loginCmd struct{}

type logoutCmd struct{}

type devServerCmd struct {
	Addr string `default:"127.0.0.1:5000" help:"Address to listen on"`
}

var cli struct {
	Prompt    string       `short:"p" help:"Send one prompt and print the rendered report"`
	Run       runCmd       `cmd:"" default:"1" help:"Run the interactive application"`
	Delete    deleteCmd    `cmd:"" help:"Delete a report on the server"`
	Login     loginCmd     `cmd:"" help:"Store the API token in the OS keyring"`
	Logout    logoutCmd    `cmd:"" help:"Remove the stored API token"`
	DevServer devServerCmd `cmd:"devserver" help:"Run a local stand-in for the report server"`
	Version   versionCmd   `cmd:"version" help:"Print version information"`
}

func initLogger(level string) {
	logDir, err := dataDir()
	if err != nil {
		panic(err)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		panic(fmt.Errorf("failed to create log directory %s: %w", logDir, err))
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, appName+".log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, opts)))
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// services bundles what the commands share. store may be nil when the local
// database cannot be opened.
type services struct {
	store  *LocalStore
	state  *AppState
	client *APIClient
	token  string
}

func openServices(config *Config) *services {
	s := &services{}

	path, err := config.storagePath()
	if err == nil {
		s.store, err = OpenLocalStore(path)
	}
	if err != nil {
		slog.Warn("store.open_failed", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: preferences and report list will not be saved: %v\n", err)
	}

	var prefs Preferences
	if s.store != nil {
		prefs = s.store
	}
	s.state = NewAppState(prefs, Theme(config.UI.Theme))

	s.token, err = GetTokenFromKeyring()
	if err != nil {
		slog.Warn("keyring.read_failed", "error", err)
	}
	s.client = NewAPIClient(config.Server.BaseURL, s.token)
	return s
}

func (s *services) history() HistoryCache {
	if s.store == nil {
		return nil
	}
	return s.store
}

func (s *services) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("store.close_failed", "error", err)
		}
	}
}

func (v versionCmd) Run() error {
	fmt.Printf("raport v%s\n", version)
	return nil
}

func (r *runCmd) Run(config *Config) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Println("This program requires a terminal to run.")
		fmt.Println("Use -p \"<prompt>\" to get a single report without the interface.")
		return nil
	}

	svc := openServices(config)
	defer svc.Close()

	model := NewTUIModel(config, svc.state, svc.client, svc.history())
	model.reconnect = func(baseURL string) ReportClient {
		return NewAPIClient(baseURL, svc.token)
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}

func (d *deleteCmd) Run(config *Config) error {
	svc := openServices(config)
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	if err := svc.client.DeleteReport(ctx, d.ID); err != nil {
		return fmt.Errorf("failed to delete report %s: %w", d.ID, err)
	}
	if h := svc.history(); h != nil {
		if err := h.RemoveHistory(ctx, d.ID); err != nil {
			slog.Warn("history.remove_failed", "id", d.ID, "error", err)
		}
	}
	fmt.Printf("Deleted report %s\n", d.ID)
	return nil
}

func (l *loginCmd) Run(config *Config) error {
	token, err := readToken(os.Stdin, NewPalette(config.UI.Theme == string(ThemeDark)))
	if err != nil {
		return err
	}
	if err := SaveTokenToKeyring(token); err != nil {
		return err
	}
	fmt.Println("Token saved.")
	return nil
}

func (l *logoutCmd) Run() error {
	if err := DeleteTokenFromKeyring(); err != nil {
		return err
	}
	fmt.Println("Token removed.")
	return nil
}

func (d *devServerCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	fmt.Printf("Report dev server listening on http://%s\n", d.Addr)
	return runDevServer(ctx, d.Addr)
}

// runPrompt sends one prompt and writes the rendered report to out.
func runPrompt(ctx context.Context, client ReportClient, state *AppState, history HistoryCache, prompt string, out io.Writer) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("empty prompt")
	}

	resp, err := client.SendPrompt(ctx, prompt)
	if err != nil {
		return err
	}

	rendered := NewResponseRenderer().Render(resp, state.Dark(), oneShotWidth)
	fmt.Fprintln(out, rendered.Text)

	if item := resp.NewHistoryItem; item != nil {
		fmt.Fprintf(out, "\nSaved as report %s\n", item.ID)
		if history != nil {
			if err := history.PutHistory(ctx, HistoryItem{ID: item.ID, Title: item.Title}); err != nil {
				slog.Warn("history.save_failed", "id", item.ID, "error", err)
			}
		}
	}
	return nil
}

func main() {
	config, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Using defaults due to config load failure: %v\n", err)
		defaults := defaultConfig()
		config = &defaults
	}
	initLogger(config.Logging.Level)

	ctx := kong.Parse(&cli,
		kong.Name(appName),
		kong.Description("Chat with the report server from your terminal."),
		kong.Bind(config))

	if cli.Prompt != "" {
		svc := openServices(config)
		reqCtx, cancel := context.WithTimeout(context.Background(), config.Server.Timeout)
		err := runPrompt(reqCtx, svc.client, svc.state, svc.history(), cli.Prompt, os.Stdout)
		cancel()
		svc.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := ctx.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
