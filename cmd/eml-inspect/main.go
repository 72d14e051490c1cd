// Package main provides a standalone CLI tool for inspecting .eml files
// the way the intake pipeline processes them. It prints the per-part
// classification table and, with -save, runs the full pipeline against a
// local directory store.
//
// Usage:
//
//	eml-inspect message.eml
//	eml-inspect -msgid 17 message.eml
//	eml-inspect -save -out ./documents -fetch message.eml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pleadbot/mail-intake/internal/docstore"
	"github.com/pleadbot/mail-intake/internal/extract"
	"github.com/pleadbot/mail-intake/internal/fetch"
	"github.com/pleadbot/mail-intake/internal/intake"
	"github.com/pleadbot/mail-intake/internal/message"
)

type options struct {
	msgid string
	save  bool
	out   string
	fetch bool
}

func main() {
	opts, paths := parseFlags()

	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "error: at least one .eml file is required")
		flag.Usage()
		os.Exit(2)
	}
	if opts.msgid != "" && len(paths) > 1 {
		fmt.Fprintln(os.Stderr, "error: -msgid only makes sense with a single file")
		os.Exit(2)
	}

	failed := false
	for _, path := range paths {
		if err := inspect(opts, path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func parseFlags() (options, []string) {
	var opts options

	flag.StringVar(&opts.msgid, "msgid", "", "Message id used in target filenames (default: file base name)")
	flag.BoolVar(&opts.save, "save", false, "Run the full pipeline and save documents")
	flag.StringVar(&opts.out, "out", "./documents", "Directory for saved documents (with -save)")
	flag.BoolVar(&opts.fetch, "fetch", false, "Fetch remote link candidates (with -save)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: eml-inspect [options] file.eml [file.eml ...]\n\n")
		fmt.Fprintf(os.Stderr, "Inspects .eml files the way the intake pipeline processes them.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  eml-inspect filing.eml\n")
		fmt.Fprintf(os.Stderr, "  eml-inspect -msgid 17 filing.eml\n")
		fmt.Fprintf(os.Stderr, "  eml-inspect -save -out /tmp/docs -fetch filing.eml\n")
	}

	flag.Parse()
	return opts, flag.Args()
}

func inspect(opts options, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	msgid := opts.msgid
	if msgid == "" {
		base := filepath.Base(path)
		msgid = strings.TrimSuffix(base, filepath.Ext(base))
	}

	msg, err := message.Parse(msgid, raw)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	fmt.Printf("Message %s\n", msgid)
	fmt.Printf("  From:    %s\n", msg.From)
	fmt.Printf("  Subject: %s\n", msg.Subject)
	fmt.Println()

	printParts(msg)

	if opts.save {
		return runPipeline(opts, msg)
	}
	return nil
}

// printParts renders the classification table the processor would act on,
// including the extracted links of html and text parts.
func printParts(msg *message.Message) {
	fmt.Printf("  %-4s %-30s %-6s %-11s %s\n", "PART", "CONTENT-TYPE", "EXT", "ACTION", "TARGET")

	counter := 0
	_ = msg.Walk(func(p *message.Part) error {
		action := intake.Classify(p)
		if action == intake.ActionContainer {
			fmt.Printf("  %-4s %-30s %-6s %-11s %s\n", "-", p.ContentType, "-", action, "-")
			return nil
		}
		counter++

		target := "-"
		if action == intake.ActionAttachment {
			target = intake.PartFileName(msg.ID, msg.From, p, counter)
		}
		fmt.Printf("  %-4d %-30s %-6s %-11s %s\n", counter, p.ContentType, intake.ExtensionFor(p), action, target)

		switch action {
		case intake.ActionHTMLLinks:
			printLinks(msg, p, counter, extract.FromHTML)
		case intake.ActionTextLinks:
			printLinks(msg, p, counter, extract.FromText)
		}
		return nil
	})
}

// printLinks lists the URLs an extractor finds in one part and the target
// filename each candidate would be saved under.
func printLinks(msg *message.Message, p *message.Part, n int, extractor func([]byte) ([]string, error)) {
	urls, err := extractor(p.Body)
	if err != nil {
		fmt.Printf("         link extraction failed: %v\n", err)
		return
	}
	for _, u := range urls {
		if intake.IsPDFURL(u) {
			fmt.Printf("         link %s -> %s\n", u, intake.LinkFileName(msg.ID, u, msg.From, n))
		} else {
			fmt.Printf("         link %s (not a pdf, skipped)\n", u)
		}
	}
}

// runPipeline processes the message for real into a local directory store.
// No ledger or queue is wired; without -fetch, link candidates are skipped.
func runPipeline(opts options, msg *message.Message) error {
	store, err := docstore.NewLocalStore(opts.out)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	var fetcher fetch.Client
	if opts.fetch {
		fetcher = fetch.NewHTTPClient(fetch.Config{})
	}

	log := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()
	proc := intake.NewProcessor(store, fetcher, nil, nil, "", log)
	verdict := proc.ProcessMessage(context.Background(), msg)

	fmt.Println()
	for _, part := range verdict.Parts {
		for _, name := range part.Saved {
			fmt.Printf("  saved %s\n", filepath.Join(opts.out, name))
		}
		if part.Err != nil {
			fmt.Printf("  part %d failed: %v\n", part.Ordinal, part.Err)
		}
	}

	if !verdict.Succeeded {
		return fmt.Errorf("processing failed after %d document(s)", verdict.SavedCount)
	}
	fmt.Printf("Processed: %d document(s) saved\n", verdict.SavedCount)
	return nil
}
