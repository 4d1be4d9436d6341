// Reportpdf inspects and exports overlay-edited PDFs from the command
// line: -dump prints the extracted text fragments of a document, -export
// replays an edit set onto it and writes the rebuilt PDF.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/PoojaSrinivasan05/reporteditorsystem/blob"
	"github.com/PoojaSrinivasan05/reporteditorsystem/config"
	"github.com/PoojaSrinivasan05/reporteditorsystem/editor"
	"github.com/PoojaSrinivasan05/reporteditorsystem/extract"
	"github.com/PoojaSrinivasan05/reporteditorsystem/observability"
	"github.com/PoojaSrinivasan05/reporteditorsystem/overlay"
	"github.com/PoojaSrinivasan05/reporteditorsystem/store"
)

type options struct {
	configPath string
	pdfPath    string
	editsPath  string
	outPath    string
	docID      string
	scale      float64
	dump       bool
	export     bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "reportpdf: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "reportpdf: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: reportpdf [flags] <pdf>\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.configPath, "config", "reportpdf.yaml", "config file path")
	flag.StringVar(&opts.editsPath, "edits", "", "JSON file of edit records (offline mode)")
	flag.StringVar(&opts.outPath, "out", "out.pdf", "output path for -export")
	flag.StringVar(&opts.docID, "doc", "local", "document id the edits belong to")
	flag.Float64Var(&opts.scale, "scale", 0, "render scale (overrides config)")
	flag.BoolVar(&opts.dump, "dump", false, "print extracted fragments as JSON")
	flag.BoolVar(&opts.export, "export", false, "write the rebuilt PDF")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, errors.New("exactly one pdf path required")
	}
	opts.pdfPath = flag.Arg(0)
	if opts.dump == opts.export {
		return options{}, errors.New("pass exactly one of -dump or -export")
	}
	return opts, nil
}

func run(opts options) error {
	ctx := context.Background()
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.scale > 0 {
		cfg.RenderScale = opts.scale
	}
	log := observability.NewWriterLogger(os.Stderr, observability.ParseLevel(cfg.LogLevel))

	source, err := os.ReadFile(opts.pdfPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.pdfPath, err)
	}

	if opts.dump {
		return dumpFragments(ctx, source, cfg.RenderScale, log)
	}
	return exportEdited(ctx, opts, cfg, source, log)
}

func dumpFragments(ctx context.Context, source []byte, scale float64, log observability.Logger) error {
	doc, err := extract.OpenDocument(source)
	if err != nil {
		return err
	}
	results, err := extract.New(extract.WithLogger(log)).ExtractDocument(ctx, doc, scale)
	if err != nil {
		return err
	}
	var fragments []overlay.TextFragment
	for num := 1; num <= doc.NumPages(); num++ {
		fragments = append(fragments, results[num].Fragments...)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(fragments)
}

func exportEdited(ctx context.Context, opts options, cfg config.Config, source []byte, log observability.Logger) error {
	adapter, err := openAdapter(opts, cfg, log)
	if err != nil {
		return err
	}
	blobs, err := openBlobs(cfg)
	if err != nil {
		return err
	}

	sess, err := editor.NewSession(ctx, opts.docID, source, adapter, blobs,
		editor.WithLogger(log), editor.WithScale(cfg.RenderScale))
	if err != nil {
		return err
	}
	out, err := sess.Export(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.outPath, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.outPath, err)
	}
	log.Info("export written", observability.String("path", opts.outPath), observability.Int("bytes", len(out)))
	return nil
}

// openAdapter picks the edit source: an edits JSON file wins, then the
// configured database, then an empty in-memory set.
func openAdapter(opts options, cfg config.Config, log observability.Logger) (overlay.Adapter, error) {
	if opts.editsPath != "" {
		data, err := os.ReadFile(opts.editsPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", opts.editsPath, err)
		}
		var recs []overlay.Record
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", opts.editsPath, err)
		}
		mem := overlay.NewMemoryAdapter()
		mem.Seed(recs...)
		return mem, nil
	}
	if cfg.DatabaseDSN != "" {
		return store.Open(cfg.DatabaseDSN, store.WithLogger(log))
	}
	return overlay.NewMemoryAdapter(), nil
}

func openBlobs(cfg config.Config) (blob.Store, error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return blob.NewRedisStore(client), nil
	}
	return blob.NewFSStore(cfg.BlobDir)
}
