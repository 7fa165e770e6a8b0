package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/gestureos/internal/app"
	"github.com/ayusman/gestureos/internal/config"
	"github.com/ayusman/gestureos/internal/dispatch"
	"github.com/ayusman/gestureos/internal/input/keyboard"
	"github.com/ayusman/gestureos/internal/plugin"
	"github.com/ayusman/gestureos/internal/recognizer"
	"github.com/ayusman/gestureos/internal/server"
	"github.com/ayusman/gestureos/internal/store"
	"github.com/ayusman/gestureos/internal/tray"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "gestureos: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gestureos: failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger.Sugar()); err != nil {
		logger.Sugar().Errorw("GestureOS exited with error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	plugins := plugin.NewManager(cfg.Plugins.Dir, log.Named("plugins"))
	decoder := recognizer.Decoder{MinConfidence: cfg.Recognizer.MinConfidence}

	recognizerWS := server.NewRecognizerHandler(decoder, log.Named("recognizer"))
	sources := []dispatch.Source{recognizerWS}

	var emulator *keyboard.Emulator
	if cfg.Keyboard.Enabled {
		kcfg := keyboard.DefaultConfig()
		kcfg.Period = cfg.Keyboard.Heartbeat
		kcfg.Logger = log.Named("keyboard")
		if len(cfg.Keyboard.Devices) > 0 {
			kcfg.Readers = []keyboard.KeyReader{keyboard.NewEvdevReader(cfg.Keyboard.Devices)}
		}
		emulator = keyboard.NewEmulator(kcfg)
		sources = append(sources, emulator)
	}

	if len(cfg.Recognizer.Command) > 0 {
		sources = append(sources, recognizer.NewProcess(cfg.Recognizer.Command, decoder, log.Named("recognizer")))
	}

	manager := dispatch.New(dispatch.Config{
		WindowSize: cfg.Engine.WindowSize,
		QueueSize:  cfg.Engine.QueueSize,
		Logger:     log.Named("dispatch"),
	}, sources...)

	feed := server.NewFeed(log.Named("feed"))
	observers := []app.Observer{feed}

	var systemTray *tray.Tray
	if cfg.Tray.Enabled {
		systemTray = tray.New(st.Settings().GetBool(store.SettingEnabled, true))
		observers = append(observers, systemTray)
	}

	a := app.New(app.Config{
		Store:        st,
		Manager:      manager,
		Plugins:      plugins,
		Executor:     plugin.NewExecutor(cfg.Plugins.Timeout),
		Observers:    observers,
		WatchPlugins: cfg.Plugins.Watch,
		Logger:       log.Named("app"),
	})

	srvCfg := server.Config{
		StaticDir:         cfg.HTTP.StaticDir,
		Store:             st,
		Plugins:           plugins,
		Engine:            a,
		Recognizer:        recognizerWS,
		Feed:              feed,
		MaxHoldCount:      manager.WindowSize(),
		OnBindingsChanged: a.ReloadBindings,
		Logger:            log.Named("http"),
	}
	if srvCfg.StaticDir == "" {
		srvCfg.StaticDir = findWebDir(cfg.DataDir)
	}
	if emulator != nil {
		srvCfg.Keys = emulator
	}
	if systemTray != nil {
		srvCfg.Engine = trayToggle{App: a, tray: systemTray}
	}
	if srvCfg.StaticDir != "" {
		log.Infow("Serving static files", "dir", srvCfg.StaticDir)
	}
	srv := server.New(srvCfg)

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer a.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.HTTP.Addr)
		stop()
	}()

	if systemTray != nil {
		systemTray.OnToggle(func(enabled bool) {
			if err := a.SetEnabled(enabled); err != nil {
				log.Errorw("Failed to persist enabled state", "error", err)
			}
		})
		systemTray.OnSettings(func() {
			openBrowser(settingsURL(cfg.HTTP.Addr), log)
		})
		systemTray.OnQuit(stop)
		go func() {
			<-ctx.Done()
			systemTray.Quit()
		}()
		// The tray owns the main thread until it quits.
		systemTray.Run()
		stop()
	}

	<-ctx.Done()
	log.Infow("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("HTTP shutdown incomplete", "error", err)
	}

	select {
	case err := <-errCh:
		return err
	case <-shutdownCtx.Done():
		return nil
	}
}

// trayToggle keeps the tray in step with engine toggles made over HTTP.
type trayToggle struct {
	*app.App
	tray *tray.Tray
}

func (t trayToggle) SetEnabled(enabled bool) error {
	err := t.App.SetEnabled(enabled)
	t.tray.SetEnabled(enabled)
	return err
}

func settingsURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string, log *zap.SugaredLogger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warnw("Failed to open browser", "url", url, "error", err)
		return
	}
	go cmd.Wait()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
