package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultOpenRouterKeyPath = "/run/secrets/api_keys/openrouter"
	OpenRouterKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"
	EnvFileEnvVar            = "SCREEN_TRANSLATE_ENV"

	ProviderGoogle     = "google"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"

	CaptureModeQuick   = "quick"
	CaptureModePrecise = "precise"

	OCREngineTesseract = "tesseract"
	OCREngineVision    = "vision"

	InpaintDiffuse = "diffuse"
	InpaintOpenCV  = "opencv"
)

type LoadOptions struct {
	APIKeyPathOverride string
	ProviderOverride   string
	TargetLangOverride string
}

// Config holds plain read accessors consumed by the capture and translation core.
type Config struct {
	Provider   string
	Model      string
	APIKey     string
	APIKeyPath string
	ProxyURL   string
	SourceLang string
	TargetLang string

	Hotkey          string
	FixedAreaHotkey string
	CaptureMode     string

	SelectionTranslate  bool
	DoubleClickWindow   time.Duration
	DoubleClickDistance int
	DragThreshold       int
	ProviderTimeout     time.Duration

	OCREngine      string
	OCRDeadlineSec int
	VisionModel    string
	FontPath       string
	Inpaint        string

	EnableFileLogging bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order: process env, then .env beside the executable,
	// then the file named by SCREEN_TRANSLATE_ENV. godotenv.Load never
	// overrides variables that are already set.
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	provider := resolveProvider(firstNonEmpty(opts.ProviderOverride, os.Getenv("TRANSLATE_PROVIDER")))
	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		Provider:   provider,
		Model:      os.Getenv("MODEL"),
		APIKey:     resolveAPIKey(provider, apiKeyPath),
		APIKeyPath: apiKeyPath,
		ProxyURL:   strings.TrimSpace(os.Getenv("PROXY_URL")),
		SourceLang: getEnvWithDefault("SOURCE_LANG", "auto"),
		TargetLang: firstNonEmpty(opts.TargetLangOverride, getEnvWithDefault("TARGET_LANG", "zh-CN")),

		Hotkey:          getEnvWithDefault("HOTKEY", "Ctrl+Alt+T"),
		FixedAreaHotkey: getEnvWithDefault("HOTKEY_FIXED_AREA", "Ctrl+Alt+F"),
		CaptureMode:     resolveCaptureMode(os.Getenv("CAPTURE_MODE")),

		SelectionTranslate:  getEnvBool("SELECTION_TRANSLATE", true),
		DoubleClickWindow:   time.Duration(getEnvInt("DOUBLE_CLICK_WINDOW_MS", 500)) * time.Millisecond,
		DoubleClickDistance: getEnvInt("DOUBLE_CLICK_DISTANCE", 40),
		DragThreshold:       getEnvInt("DRAG_THRESHOLD", 5),
		ProviderTimeout:     time.Duration(getEnvInt("PROVIDER_TIMEOUT_SEC", 15)) * time.Second,

		OCREngine:      resolveOCREngine(os.Getenv("OCR_ENGINE")),
		OCRDeadlineSec: getEnvInt("OCR_DEADLINE_SEC", 20),
		VisionModel:    os.Getenv("VISION_MODEL"),
		FontPath:       os.Getenv("FONT_PATH"),
		Inpaint:        resolveInpaint(os.Getenv("INPAINT")),

		EnableFileLogging: getEnvBool("ENABLE_FILE_LOGGING", false),
	}

	return cfg, nil
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultOpenRouterKeyPath

	if envPath := strings.TrimSpace(os.Getenv(OpenRouterKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[OpenRouterKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

// resolveAPIKey picks the key for the selected provider. OpenRouter keys may
// also come from a secrets file, which wins over the environment.
func resolveAPIKey(provider, keyPath string) string {
	switch provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	case ProviderGoogle:
		return ""
	}

	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}
	return os.Getenv("OPENROUTER_API_KEY")
}

// OpenRouterKey returns the OpenRouter key regardless of the selected
// translation provider; the vision OCR engine always talks to OpenRouter.
func (c *Config) OpenRouterKey() string {
	if c.Provider == ProviderOpenRouter {
		return c.APIKey
	}
	return resolveAPIKey(ProviderOpenRouter, c.APIKeyPath)
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func resolveProvider(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case ProviderOpenAI:
		return ProviderOpenAI
	case ProviderOpenRouter:
		return ProviderOpenRouter
	case ProviderAnthropic, "claude":
		return ProviderAnthropic
	case ProviderGemini:
		return ProviderGemini
	default:
		return ProviderGoogle
	}
}

func resolveCaptureMode(value string) string {
	if strings.ToLower(strings.TrimSpace(value)) == CaptureModePrecise {
		return CaptureModePrecise
	}
	return CaptureModeQuick
}

func resolveOCREngine(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case OCREngineVision, "llm":
		return OCREngineVision
	default:
		return OCREngineTesseract
	}
}

func resolveInpaint(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case InpaintOpenCV, "cv":
		return InpaintOpenCV
	default:
		return InpaintDiffuse
	}
}
