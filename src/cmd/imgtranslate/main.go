package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-translate/src/compose"
	"screen-translate/src/config"
	"screen-translate/src/ocr"
	"screen-translate/src/runtimeinit"
	"screen-translate/src/screenshot"
	"screen-translate/src/service"
	"screen-translate/src/translate"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath   string
	outPath    string
	jsonOutput bool
	verbose    bool
	apiKeyPath string
	provider   string
	sourceLang string
	targetLang string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(os.Args)
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"imgtranslate"}
	}
	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "imgtranslate",
		Short:         "Translate the text inside a PNG and redraw it in place",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "-", "Where to write the translated PNG ('-' for stdout)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print recognised regions and translations as JSON instead of an image")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Translation provider override")
	cmd.Flags().StringVar(&opts.sourceLang, "source-lang", "", "Source language, 'auto' to detect")
	cmd.Flags().StringVar(&opts.targetLang, "target-lang", "", "Target language override")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, stdin io.Reader, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.verbose {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		APIKeyPathOverride: opts.apiKeyPath,
		ProviderOverride:   opts.provider,
		TargetLangOverride: opts.targetLang,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.sourceLang != "" {
		cfg.SourceLang = opts.sourceLang
	}

	img, err := readImage(opts.filePath, stdin)
	if err != nil {
		return err
	}

	translator, err := service.NewOrchestrator(cfg)
	if err != nil {
		return err
	}
	comp, err := runtimeinit.NewCompositor(cfg)
	if err != nil {
		return err
	}
	job := &job{
		ocr:        runtimeinit.NewRecognizer(cfg),
		translator: translator,
		compositor: comp,
		source:     cfg.SourceLang,
		target:     cfg.TargetLang,
	}

	ctx, cancel := context.WithTimeout(ctx, service.OCRDeadline(cfg)+cfg.ProviderTimeout*4)
	defer cancel()

	start := time.Now()
	out, err := job.run(ctx, img, !opts.jsonOutput)
	if err != nil {
		return err
	}
	log.Printf("Translated %d regions in %v", len(out.Regions), time.Since(start))

	if opts.jsonOutput {
		out.Source = opts.filePath
		out.Duration = time.Since(start).Seconds()
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}
	return writeImage(opts.outPath, out.image, stdout)
}

func readImage(path string, stdin io.Reader) (image.Image, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if err := validatePNG(data); err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}
	return img, nil
}

func validatePNG(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("input file is empty")
	}
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

func writeImage(path string, img image.Image, stdout io.Writer) error {
	data, err := screenshot.EncodePNG(img)
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// RegionResult is one recognised line in JSON output.
type RegionResult struct {
	Text        string  `json:"text"`
	Translation string  `json:"translation"`
	CenterX     float64 `json:"cx"`
	CenterY     float64 `json:"cy"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Angle       float64 `json:"angle"`
}

type Output struct {
	Source   string         `json:"source,omitempty"`
	Target   string         `json:"target_lang"`
	Regions  []RegionResult `json:"regions"`
	Duration float64        `json:"duration_seconds"`

	image *image.RGBA
}

type job struct {
	ocr        ocr.Recognizer
	translator *translate.Orchestrator
	compositor *compose.Compositor
	source     string
	target     string
}

// run recognises, translates and, when redraw is set, composites img.
func (j *job) run(ctx context.Context, img image.Image, redraw bool) (*Output, error) {
	regions, err := j.ocr.RecognizeRegions(ctx, img, j.source, true)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	out := &Output{Target: j.target}
	placements := make([]compose.Placement, 0, len(regions))
	for _, r := range regions {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		res, err := j.translator.Translate(ctx, r.Text, j.source, j.target)
		if err != nil {
			return nil, err
		}
		out.Regions = append(out.Regions, RegionResult{
			Text: r.Text, Translation: res.Text(),
			CenterX: r.CX, CenterY: r.CY, Width: r.W, Height: r.H, Angle: r.Angle,
		})
		placements = append(placements, compose.Placement{Region: r, Text: res.Text()})
	}
	if len(placements) == 0 {
		return nil, service.ErrNoText
	}

	if redraw {
		out.image, err = j.compositor.Compose(ctx, img, placements)
		if err != nil {
			return nil, fmt.Errorf("compose: %w", err)
		}
	}
	return out, nil
}
