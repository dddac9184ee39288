package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dannyswat/svginspect"
	"github.com/dannyswat/svginspect/internal/buffer"
	"github.com/dannyswat/svginspect/internal/config"
	"github.com/dannyswat/svginspect/internal/tui"
	"github.com/dannyswat/svginspect/internal/wsbridge"
)

// commonFlags are accepted by every command that runs a session.
type commonFlags struct {
	configPath string
	compact    bool
}

func newFlagSet(name string, cf *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cf.configPath, "config", "", "config file")
	fs.BoolVar(&cf.compact, "compact", false, "write documents without formatting whitespace")
	return fs
}

func (cf commonFlags) load() (*config.Config, error) {
	cfg, err := config.Load(cf.configPath)
	if err != nil {
		return nil, err
	}
	if cf.compact {
		cfg.Output.Compact = true
	}
	return cfg, nil
}

func oneArg(fs *flag.FlagSet, what string) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s requires exactly one %s", fs.Name(), what)
	}
	return fs.Arg(0), nil
}

// Edit runs the terminal inspector against a local file.
func Edit(args []string) error {
	var cf commonFlags
	fs := newFlagSet("edit", &cf)
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneArg(fs, "file")
	if err != nil {
		return err
	}
	cfg, err := cf.load()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI; logs go to the configured file only.
	logger, closeLog, err := cfg.Log.OpenLogger(nil)
	if err != nil {
		return err
	}
	defer closeLog()

	file, err := buffer.Open(path, logger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := buffer.NewHost(file, logger)
	go func() {
		if err := host.Run(ctx); err != nil {
			logger.Error("file host stopped", "error", err)
		}
	}()

	return runInspector(cfg, logger, host, host.Messages(), path)
}

// Connect runs the terminal inspector against a remote host.
func Connect(args []string) error {
	var cf commonFlags
	fs := newFlagSet("connect", &cf)
	if err := fs.Parse(args); err != nil {
		return err
	}
	url, err := oneArg(fs, "websocket URL")
	if err != nil {
		return err
	}
	cfg, err := cf.load()
	if err != nil {
		return err
	}
	logger, closeLog, err := cfg.Log.OpenLogger(nil)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, err := wsbridge.Dial(ctx, url, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	return runInspector(cfg, logger, conn, conn.Receive(), url)
}

func runInspector(cfg *config.Config, logger *slog.Logger, host svginspect.Host, recv <-chan svginspect.Message, title string) error {
	session := svginspect.NewSession(host,
		svginspect.WithCodec(svginspect.XMLCodec{Compact: cfg.Output.Compact}),
		svginspect.WithLogger(logger),
	)
	model := tui.New(session, recv, tui.Options{
		Title:            title,
		ShowHiddenMarker: cfg.TUI.ShowHiddenMarker,
		Logger:           logger,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("inspector failed: %w", err)
	}
	return nil
}

// Serve shares a file with remote inspectors until interrupted.
func Serve(args []string) error {
	var cf commonFlags
	var addr string
	fs := newFlagSet("serve", &cf)
	fs.StringVar(&addr, "addr", "", "listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneArg(fs, "file")
	if err != nil {
		return err
	}
	cfg, err := cf.load()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Serve.Addr = addr
	}

	logger, closeLog, err := cfg.Log.OpenLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	file, err := buffer.Open(path, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := wsbridge.NewHandler(file, logger)
	if err := handler.Start(ctx); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Serve.Path, handler)
	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("serving document", "file", file.Path(), "url", "ws://"+cfg.Serve.Addr+cfg.Serve.Path)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// Tree prints every element of a file with its path.
func Tree(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneArg(fs, "file")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := svginspect.ParseSVG(string(data))
	if err != nil {
		return err
	}

	svginspect.Walk(doc.Root, func(n *svginspect.Node, depth int) bool {
		p, _ := svginspect.GetPath(doc.Root, n)
		line := strings.Repeat("  ", depth) + describe(n)
		fmt.Fprintf(w, "%-12s %s\n", p, line)
		return true
	})
	return nil
}

func describe(n *svginspect.Node) string {
	var b strings.Builder
	b.WriteString(n.Data)
	if id := n.ID(); id != "" {
		b.WriteString("#" + id)
	}
	for _, c := range n.Classes() {
		b.WriteString("." + c)
	}
	if svginspect.Hidden(n) {
		b.WriteString(" [hidden]")
	}
	return b.String()
}
