package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/data/store"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/rag/ingest"
	"github.com/akolanti/docgenie/internal/rag/providers"
	"github.com/akolanti/docgenie/internal/session"
	"github.com/akolanti/docgenie/internal/tui"
	"github.com/akolanti/docgenie/internal/watcher"
	"github.com/akolanti/docgenie/pkg/logger_i"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	var cfgPath, watchDir, logPath string
	flag.StringVar(&cfgPath, "config", "docgenie.yaml", "path to an optional yaml config file")
	flag.StringVar(&watchDir, "watch", "", "index every pdf and docx in this folder and rebuild when they change")
	flag.StringVar(&logPath, "log", "docgenie.log", "log file; the terminal belongs to the ui")
	flag.Parse()
	files := flag.Args()
	if watchDir == "" && len(files) == 0 {
		fmt.Println("Usage: docgenie [-config docgenie.yaml] [-watch DIR] [file.pdf file.docx ...]")
		os.Exit(1)
	}

	if err := run(cfgPath, watchDir, logPath, files); err != nil {
		fmt.Fprintln(os.Stderr, "docgenie:", err)
		os.Exit(1)
	}
}

func run(cfgPath, watchDir, logPath string, files []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger_i.InitWithWriter(cfg.Logging, logFile)
	logger := logger_i.NewLogger("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, turns, err := store.Open(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	deps, err := providers.NewDependencies(ctx, cfg, turns)
	if err != nil {
		return err
	}
	manager := session.NewManager(deps)
	defer manager.Close(context.WithoutCancel(ctx))
	s, err := manager.Create()
	if err != nil {
		return err
	}

	source := func() ([]commonModels.Document, error) {
		paths := files
		if watchDir != "" {
			found, err := ingest.SupportedFiles(watchDir)
			if err != nil {
				return nil, err
			}
			paths = append(append([]string(nil), files...), found...)
		}
		return ingest.LoadDocuments(paths)
	}

	title := "docgenie"
	if watchDir != "" {
		title += " (watching " + watchDir + ")"
	}
	program := tea.NewProgram(tui.New(ctx, s, source, title), tea.WithAltScreen())

	if watchDir != "" {
		w, err := watcher.New(watchDir, watcher.DefaultDebounce)
		if err != nil {
			return err
		}
		defer w.Close()
		changes, err := w.Watch(ctx)
		if err != nil {
			return err
		}
		go func() {
			for range changes {
				program.Send(tui.ReindexMsg{})
			}
		}()
	}

	logger.Info("starting terminal ui", "sessionId", s.Id, "files", len(files), "watch", watchDir)
	_, err = program.Run()
	return err
}
