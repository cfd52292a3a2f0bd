package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/keybridge/internal/bridge"
	"github.com/dshills/keybridge/internal/config"
	"github.com/dshills/keybridge/internal/host"
	"github.com/dshills/keybridge/internal/host/terminal"
	"github.com/dshills/keybridge/internal/input/key"
	"github.com/dshills/keybridge/internal/logging"
	"github.com/dshills/keybridge/internal/uiruntime"
)

// ErrNotTerminal is returned by run when stdin or stdout is not a terminal.
var ErrNotTerminal = errors.New("run needs an interactive terminal")

// NewRunCommand creates the run command.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bridge against the terminal host",
		Long: `Run the bridge with the terminal as host and a recording UI runtime.

Keys are normalized and pushed to the runtime, whose committed text is
shown on the status line. Tab toggles the runtime's "wants text input"
flag, which the keyboard synchronizer mirrors as a KBD indicator at the
start of the status line. Resizing republishes the safe area. Ctrl+C quits.

When --config names a file, edits to it are applied while running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return ErrNotTerminal
			}
			return runTerminal(cmd.Context(), opts)
		},
	}
}

func runTerminal(ctx context.Context, opts *RootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	// The screen owns stdout, so logs go to --log-file or nowhere.
	logger, closeLog, err := openLogger(opts, cfg, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	t, err := terminal.New(screen,
		terminal.WithTitle(cfg.Terminal.Title),
		terminal.WithIndicatorColor(cfg.Terminal.IndicatorColor),
		terminal.WithDensity(cfg.Terminal.Density),
	)
	if err != nil {
		return err
	}
	if err := t.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer t.Close()

	hc, err := host.NewContext("terminal", t, host.WithTypedGeometry(t))
	if err != nil {
		return err
	}
	defer hc.Detach()

	rt := uiruntime.NewRecorder()
	b, err := bridge.New(hc, rt, cfg, bridge.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := b.Start(ctx); err != nil {
		return err
	}
	defer b.Stop()

	demo := &demoHandler{bridge: b, runtime: rt, term: t}
	rt.OnPush(func(c uiruntime.Call) {
		if c.Kind == uiruntime.CallText {
			demo.refreshStatus()
		}
	})
	demo.refreshStatus()

	if opts.ConfigPath != "" {
		w := config.NewWatcher(opts.ConfigPath,
			func(next *config.Config) { applyReload(b, logger, opts, next) },
			func(err error) { logger.Warn("config reload: %v", err) },
		)
		if err := w.Start(); err != nil {
			logger.Warn("config watch disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	err = t.Run(ctx, demo)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func applyReload(b *bridge.Bridge, logger *logging.Logger, opts *RootOptions, next *config.Config) {
	if opts.LogLevel != "" {
		next.Logging.Level = opts.LogLevel
	}
	if err := b.ApplyConfig(next); err != nil {
		logger.Warn("rejected reloaded config: %v", err)
		return
	}
	logger.Info("config reloaded from %s", opts.ConfigPath)
}

// demoHandler sits between the terminal and the bridge. Tab stands in for
// the runtime focusing and unfocusing a text field.
type demoHandler struct {
	bridge  *bridge.Bridge
	runtime *uiruntime.Recorder
	term    *terminal.Terminal
}

func (d *demoHandler) SubmitKey(raw key.RawEvent) bool {
	if raw.Code == key.CodeTab && raw.MetaState == 0 {
		if raw.Action == key.ActionDown {
			d.runtime.ToggleWantsTextInput()
			d.refreshStatus()
		}
		return true
	}
	return d.bridge.SubmitKey(raw)
}

func (d *demoHandler) OnGeometryChanged() {
	d.bridge.OnGeometryChanged()
}

func (d *demoHandler) refreshStatus() {
	want, _ := d.runtime.WantsTextInput()
	field := "unfocused"
	if want {
		field = "focused"
	}
	d.term.SetStatus(fmt.Sprintf("field %s | text %q", field, lastRunes(d.runtime.Text(), 40)))
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
