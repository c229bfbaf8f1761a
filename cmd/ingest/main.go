// Command ingest extracts reference documents and stores them as embedded
// chunks in the configured knowledge base.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/JaimeStill/prfaq/internal/api"
	"github.com/JaimeStill/prfaq/internal/config"
	"github.com/JaimeStill/prfaq/internal/connectors"
	"github.com/JaimeStill/prfaq/internal/extract"
	"github.com/JaimeStill/prfaq/internal/infrastructure"
)

type fileList []string

func (f *fileList) String() string     { return strings.Join(*f, ",") }
func (f *fileList) Set(v string) error { *f = append(*f, v); return nil }

func main() {
	var (
		dir    = flag.String("dir", "", "Ingest every PDF, DOCX, and text file in this directory")
		source = flag.String("source", "", "Source name for a single -file (defaults to the file name)")
		files  fileList
	)
	flag.Var(&files, "file", "Document to ingest (repeatable)")
	flag.Parse()

	if *dir != "" {
		found, err := listDocuments(*dir)
		if err != nil {
			log.Fatal(err)
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		fmt.Println("usage: ingest [-file doc.pdf]... [-dir docs] [-source name]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *source != "" && len(files) > 1 {
		log.Fatal("-source applies to a single -file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed:", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		log.Fatal("infrastructure init failed:", err)
	}

	if err := infra.Start(); err != nil {
		log.Fatal("infrastructure start failed:", err)
	}
	infra.Lifecycle.WaitForStartup()
	defer infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())

	ingester, err := api.NewIngester(cfg, infra)
	if err != nil {
		log.Fatal("ingester init failed:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ingestion has no page limit
	extractor := extract.New(0)

	failed := 0
	for _, path := range files {
		name := filepath.Base(path)
		if *source != "" {
			name = *source
		}

		n, err := ingest(ctx, extractor, ingester, path, name)
		if err != nil {
			infra.Logger.Error("ingest failed", "file", path, "error", err)
			failed++
			continue
		}
		fmt.Printf("%s: %d chunks\n", name, n)
	}

	if failed > 0 {
		infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())
		log.Fatalf("%d of %d documents failed", failed, len(files))
	}
}

func ingest(ctx context.Context, extractor *extract.Extractor, ing *connectors.Ingester, path, source string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	doc, err := extractor.Extract(filepath.Base(path), "", data)
	if err != nil {
		return 0, err
	}

	return ing.Ingest(ctx, source, doc.Text)
}

func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pdf", ".docx", ".txt", ".md", ".markdown":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}
