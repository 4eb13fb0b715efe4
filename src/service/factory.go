package service

import (
	"fmt"
	"log"
	"time"

	"screen-translate/src/config"
	"screen-translate/src/logutil"
	"screen-translate/src/translate"
	"screen-translate/src/translate/aiprovider"
	"screen-translate/src/translate/machine"
)

// NewProvider builds the translation provider selected in cfg. The
// variant is fixed here and never changes at runtime.
func NewProvider(cfg *config.Config) (translate.Provider, error) {
	if cfg.Provider == config.ProviderGoogle {
		c, err := machine.New(machine.Options{ProxyURL: cfg.ProxyURL})
		if err != nil {
			return translate.Provider{}, err
		}
		log.Printf("Translation provider: %s", machine.Name)
		return c.Provider(), nil
	}

	p, err := aiprovider.New(aiprovider.Config{
		Name:     cfg.Provider,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		ProxyURL: cfg.ProxyURL,
	})
	if err != nil {
		return translate.Provider{}, fmt.Errorf("failed to create %s provider: %w", cfg.Provider, err)
	}
	log.Printf("Translation provider: %s (model=%q, key=%s)", cfg.Provider, cfg.Model, logutil.RedactKey(cfg.APIKey))
	return p, nil
}

// NewOrchestrator wraps the configured provider.
func NewOrchestrator(cfg *config.Config) (*translate.Orchestrator, error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return translate.New(p, translate.Options{Timeout: cfg.ProviderTimeout}), nil
}

// OCRDeadline is the budget for one region job.
func OCRDeadline(cfg *config.Config) time.Duration {
	if cfg.OCRDeadlineSec <= 0 {
		return 20 * time.Second
	}
	return time.Duration(cfg.OCRDeadlineSec) * time.Second
}
