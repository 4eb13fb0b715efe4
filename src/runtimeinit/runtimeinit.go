// Package runtimeinit loads configuration and builds the native engines
// (OCR, inpainting, clipboard) the resident process and the CLI share.
package runtimeinit

import (
	"fmt"
	"log"

	"screen-translate/src/clipboard"
	"screen-translate/src/compose"
	"screen-translate/src/compose/cvinpaint"
	"screen-translate/src/config"
	"screen-translate/src/llm"
	"screen-translate/src/notification"
	"screen-translate/src/ocr"
	"screen-translate/src/ocr/tesseract"
	"screen-translate/src/screenshot"
)

// defaultVisionModel is used by the vision OCR engine when VISION_MODEL is unset.
const defaultVisionModel = "google/gemini-2.0-flash-001"

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// ShowBlockingProviderError pops a message box when the provider
	// configuration is unusable.
	ShowBlockingProviderError bool
	// RequireClipboard makes a clipboard init failure fatal. The resident
	// process degrades instead: selection translation stays off.
	RequireClipboard bool
}

// Runtime is what Bootstrap hands back to main.
type Runtime struct {
	Config       *config.Config
	ClipboardOK  bool
	DisplayScale float64
}

func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	if cfg.Provider != config.ProviderGoogle && cfg.APIKey == "" {
		err := fmt.Errorf("an API key is required for provider %q", cfg.Provider)
		if opts.ShowBlockingProviderError {
			notification.ShowBlockingError("Translation provider unavailable", fmt.Sprintf("Startup check failed: %v\n\nSet the key in your .env file or choose TRANSLATE_PROVIDER=google.", err))
		}
		return nil, err
	}

	rt := &Runtime{Config: cfg, ClipboardOK: true, DisplayScale: screenshot.ScaleFactor()}
	if err := clipboard.Init(); err != nil {
		if opts.RequireClipboard {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		log.Printf("Clipboard unavailable, selection translation disabled: %v", err)
		rt.ClipboardOK = false
	}

	log.Printf("Provider=%s source=%s target=%s ocr=%s inpaint=%s scale=%.2f",
		cfg.Provider, cfg.SourceLang, cfg.TargetLang, cfg.OCREngine, cfg.Inpaint, rt.DisplayScale)
	return rt, nil
}

// NewRecognizer builds the OCR engine selected in cfg. The vision engine
// needs an OpenRouter key; without one tesseract is used.
func NewRecognizer(cfg *config.Config) ocr.Recognizer {
	if cfg.OCREngine == config.OCREngineVision {
		if key := cfg.OpenRouterKey(); key != "" {
			model := cfg.VisionModel
			if model == "" {
				model = defaultVisionModel
			}
			llm.Init(&llm.Config{APIKey: key, Model: model, ProxyURL: cfg.ProxyURL})
			if err := llm.Ping(); err == nil {
				log.Printf("OCR engine: vision (%s)", model)
				return &ocr.Vision{}
			}
		}
		log.Printf("OCR engine: vision requested without an OpenRouter key, using tesseract")
	}
	log.Printf("OCR engine: tesseract")
	return &tesseract.Engine{}
}

// NewCompositor builds the image compositor with the configured inpainter.
func NewCompositor(cfg *config.Config) (*compose.Compositor, error) {
	opts := compose.Options{FontPath: cfg.FontPath}
	if cfg.Inpaint == config.InpaintOpenCV {
		opts.Inpainter = cvinpaint.Inpainter{Radius: cvinpaint.DefaultRadius}
	}
	return compose.New(opts)
}
