// Command generate runs the PR/FAQ workflow once from a JSON input file and
// prints the rendered document.
package main

import (
	"context"
	"encoding/json"
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
	"github.com/JaimeStill/prfaq/internal/extract"
	"github.com/JaimeStill/prfaq/internal/infrastructure"
	"github.com/JaimeStill/prfaq/internal/prfaq"
	"github.com/JaimeStill/prfaq/internal/workflow"
)

type fileList []string

func (f *fileList) String() string     { return strings.Join(*f, ",") }
func (f *fileList) Set(v string) error { *f = append(*f, v); return nil }

func main() {
	var (
		input  = flag.String("input", "", "JSON inputs file (generate) or modify inputs file (-modify)")
		modify = flag.Bool("modify", false, "Revise current_prfaq using the last chat_history message")
		plan   = flag.Bool("plan", false, "Print the planned stages and exit")
		out    = flag.String("out", "", "Write the markdown document to this file instead of stdout")
		asJSON = flag.Bool("json", false, "Print the full response as JSON")
		files  fileList
	)
	flag.Var(&files, "file", "Reference document to extract (repeatable)")
	flag.Parse()

	if *input == "" {
		fmt.Println("usage: generate -input <file.json> [-modify] [-plan] [-file doc.pdf]... [-out doc.md] [-json]")
		flag.PrintDefaults()
		os.Exit(2)
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

	rt, err := api.NewWorkflowRuntime(cfg, infra)
	if err != nil {
		log.Fatal("workflow init failed:", err)
	}

	sys := prfaq.New(rt, extract.New(cfg.API.MaxPDFPages), prfaq.Config{
		MaxLinks:      cfg.API.MaxLinks,
		MaxFiles:      cfg.API.MaxFiles,
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
	}, infra.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := func(e workflow.ProgressEvent) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", e.Step, e.Detail)
	}

	var result *workflow.Result

	if *modify {
		var in workflow.ModifyInputs
		if err := readJSON(*input, &in); err != nil {
			log.Fatal(err)
		}
		if err := attach(sys, files, &in.Inputs); err != nil {
			log.Fatal(err)
		}
		if *plan {
			printPlan(workflow.ModifyPlan())
			return
		}
		result, err = sys.Modify(ctx, in, sink)
	} else {
		var in workflow.Inputs
		if err := readJSON(*input, &in); err != nil {
			log.Fatal(err)
		}
		if err := attach(sys, files, &in); err != nil {
			log.Fatal(err)
		}
		if *plan {
			printPlan(sys.Plan(in))
			return
		}
		result, err = sys.Generate(ctx, in, sink)
	}

	if err != nil {
		log.Fatal("run failed: ", err)
	}

	resp := prfaq.NewResponse(result)

	var output []byte
	if *asJSON {
		output, err = json.MarshalIndent(resp, "", "  ")
		if err != nil {
			log.Fatal(err)
		}
	} else {
		output = []byte(resp.MarkdownOutput)
	}

	if *out == "" {
		os.Stdout.Write(output)
		fmt.Println()
		return
	}

	if err := os.WriteFile(*out, output, 0644); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", *out)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// attach extracts the given files and appends their text to the reference
// document.
func attach(sys prfaq.System, paths []string, in *workflow.Inputs) error {
	if len(paths) == 0 {
		return nil
	}

	uploads := make([]prfaq.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		uploads = append(uploads, prfaq.Upload{Filename: filepath.Base(p), Data: data})
	}

	extracted, err := sys.Extract(uploads)
	if err != nil {
		return err
	}

	if strings.TrimSpace(in.ReferenceDocContent) == "" {
		in.ReferenceDocContent = extracted.ReferenceDocContent
	} else {
		in.ReferenceDocContent += "\n\n" + extracted.ReferenceDocContent
	}
	return nil
}

func printPlan(stages []string) {
	for i, s := range stages {
		fmt.Printf("%d. %s\n", i+1, s)
	}
}
