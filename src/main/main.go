package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"screen-translate/src/capture"
	"screen-translate/src/clipboard"
	"screen-translate/src/config"
	"screen-translate/src/eventloop"
	"screen-translate/src/generation"
	"screen-translate/src/hotkey"
	"screen-translate/src/logutil"
	"screen-translate/src/overlay"
	"screen-translate/src/pointer"
	"screen-translate/src/present"
	"screen-translate/src/runtimeinit"
	"screen-translate/src/selection"
	"screen-translate/src/service"
	"screen-translate/src/singleinstance"
	"screen-translate/src/tray"
	"screen-translate/src/uithread"
)

const appID = "app.screentranslate"

type mainOptions struct {
	apiKeyPath string
	provider   string
	targetLang string

	// capture hands one request to the running resident and exits.
	capture string
	fixed   bool
}

func main() {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-translate",
		Short:         "Translate selected text and screen regions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.capture != "" {
				return runDelegate(cmd.Context(), *opts, singleinstance.NewClient())
			}
			return runResident(*opts)
		},
	}
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Translation provider: google, openai, openrouter, anthropic, gemini")
	cmd.Flags().StringVar(&opts.targetLang, "target-lang", "", "Target language tag, e.g. de or zh-CN")
	cmd.Flags().StringVar(&opts.capture, "capture", "", "Ask the running instance for a capture: translate, copy-original, copy-translated, copy-bilingual, copy-image-translated, rect-selection")
	cmd.Flags().BoolVar(&opts.fixed, "fixed", false, "With --capture, reuse the stored fixed area instead of opening the overlay")
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to the double-dash form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"screen-translate"}
	}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if strings.HasPrefix(arg, "--") || !strings.HasPrefix(arg, "-") || len(arg) <= 2 {
			continue
		}
		name := strings.SplitN(arg[1:], "=", 2)[0]
		switch name {
		case "api-key-path", "provider", "target-lang", "capture", "fixed":
			normalized[i] = "-" + arg
		}
	}
	return normalized
}

// requester is the part of the event loop the tray and hotkeys drive.
type requester interface {
	Trigger(eventloop.Request) bool
}

func trigger(r requester, intent capture.Intent, fixed bool) func() {
	return func() {
		if !r.Trigger(eventloop.Request{Intent: intent, Fixed: fixed}) {
			log.Printf("Request %s dropped: queue full", intent)
		}
	}
}

// trayActions binds every tray entry to a region request.
func trayActions(r requester, sel *service.Selection, quit func()) tray.Actions {
	a := tray.Actions{
		TranslateRegion:    trigger(r, capture.Translate, false),
		TranslateFixedArea: trigger(r, capture.Translate, true),
		SetFixedArea:       trigger(r, capture.RectSelection, false),
		CopyOriginal:       trigger(r, capture.CopyOriginal, false),
		CopyTranslated:     trigger(r, capture.CopyTranslated, false),
		CopyBilingual:      trigger(r, capture.CopyBilingual, false),
		CopyImage:          trigger(r, capture.CopyImageTranslated, false),
		Quit:               quit,
	}
	if sel != nil {
		a.SelectionEnabled = sel.Enabled()
		a.ToggleSelection = sel.SetEnabled
	}
	return a
}

// hotkeyBindings returns the region and fixed-area hotkeys; unmappable
// combinations are skipped.
func hotkeyBindings(cfg *config.Config, r requester) []*hotkey.Binding {
	var out []*hotkey.Binding
	if b, ok := hotkey.NewBinding("translate region", cfg.Hotkey, trigger(r, capture.Translate, false)); ok {
		out = append(out, b)
	}
	if cfg.FixedAreaHotkey != "" {
		if b, ok := hotkey.NewBinding("translate fixed area", cfg.FixedAreaHotkey, trigger(r, capture.Translate, true)); ok {
			out = append(out, b)
		}
	}
	return out
}

// runDelegate sends one capture request to the resident.
func runDelegate(ctx context.Context, opts mainOptions, client singleinstance.Client) error {
	intent, ok := capture.ParseIntent(opts.capture)
	if !ok {
		return fmt.Errorf("unknown capture intent %q", opts.capture)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	delegated, _, err := client.Send(ctx, singleinstance.Request{Intent: intent, Fixed: opts.fixed})
	if err != nil {
		return fmt.Errorf("resident refused %s: %w", intent, err)
	}
	if !delegated {
		return fmt.Errorf("screen-translate is not running")
	}
	return nil
}

// serveDelegated forwards requests from later invocations to the loop.
func serveDelegated(ctx context.Context, srv singleinstance.Server, r requester) {
	for {
		conn, err := srv.Next(ctx)
		if err != nil {
			return
		}
		req := conn.Request()
		if r.Trigger(eventloop.Request{Intent: req.Intent, Fixed: req.Fixed}) {
			_ = conn.RespondSuccess("queued")
		} else {
			_ = conn.RespondError("busy, please retry")
		}
		_ = conn.Close()
	}
}

func runResident(opts mainOptions) error {
	// Before any window exists or metrics are queried.
	enableDPIAwareness()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := singleinstance.NewServer()
	if err := srv.Start(ctx); err != nil {
		start, _ := singleinstance.PortRange()
		return fmt.Errorf("another instance is already running (port %d busy)", start)
	}
	defer srv.Close()

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride: opts.apiKeyPath,
			ProviderOverride:   opts.provider,
			TargetLangOverride: opts.targetLang,
		},
		SetupLogging:              logutil.Setup,
		ShowBlockingProviderError: true,
	})
	if err != nil {
		return err
	}
	cfg := rt.Config
	logMonitorConfiguration()

	a := app.NewWithID(appID)
	window := present.NewWindow(a)
	gen := generation.New()
	reporter := service.NewReporter(gen, present.Notifier{App: a})

	ui := uithread.New()
	go ui.Run(ctx)
	<-ui.Started()
	tx := clipboard.NewTransaction(clipboard.System(), ui)

	translator, err := service.NewOrchestrator(cfg)
	if err != nil {
		return err
	}

	extractor := selection.NewExtractor(gen, tx, selection.Options{SourceLang: cfg.SourceLang})
	sel := service.NewSelection(gen, extractor, translator, window, reporter, service.SelectionOptions{
		TargetLang:    cfg.TargetLang,
		DragThreshold: cfg.DragThreshold,
		Disabled:      !cfg.SelectionTranslate || !rt.ClipboardOK,
	})

	comp, err := runtimeinit.NewCompositor(cfg)
	if err != nil {
		return fmt.Errorf("failed to create compositor: %w", err)
	}
	region := service.NewRegion(runtimeinit.NewRecognizer(cfg), translator, comp, tx, service.RegionOptions{
		SourceLang: cfg.SourceLang,
		TargetLang: cfg.TargetLang,
	})
	loop := eventloop.New(gen, overlay.NewSelector(), region, window, reporter, eventloop.Options{
		Mode:     capture.ParseMode(cfg.CaptureMode),
		Deadline: service.OCRDeadline(cfg),
		Suspend:  sel,
	})
	go func() {
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("event loop stopped: %v", err)
		}
	}()
	go serveDelegated(ctx, srv, loop)

	input := pointer.NewSource(pointer.Options{
		DoubleClickWindow:   cfg.DoubleClickWindow,
		DoubleClickDistance: cfg.DoubleClickDistance,
	})
	pointerEvents := input.Subscribe(64)
	keyEvents := input.Subscribe(64)
	go sel.Run(ctx, pointerEvents)
	go hotkey.NewMatcher(hotkeyBindings(cfg, loop)...).Run(ctx, keyEvents)
	if !input.Start() {
		log.Printf("Input hook unavailable; tray actions still work")
	}
	defer input.Stop()

	quit := func() {
		cancel()
		fyne.Do(a.Quit)
	}
	tray.Install(a, trayActions(loop, sel, quit))

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			quit()
		case <-ctx.Done():
		}
	}()

	log.Printf("Screen Translate running. Hotkey: %s, fixed area: %s, selection: %v",
		cfg.Hotkey, cfg.FixedAreaHotkey, sel.Enabled())
	a.Run()
	cancel()
	return nil
}
