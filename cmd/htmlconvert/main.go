// Package main contains the HTML export converter. It turns a Telegram
// HTML chat export into a plain-text transcript and a JSONL file.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nazargulov/pb-joke-bot/internal/config"
	"github.com/nazargulov/pb-joke-bot/internal/htmlexport"
	"github.com/nazargulov/pb-joke-bot/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	input := flag.String("in", "", "Path to the HTML export file")
	textOut := flag.String("text", "", "Output path for the transcript (default: input with .md)")
	jsonlOut := flag.String("jsonl", "", "Output path for the JSONL file (default: input with .jsonl)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}
	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: htmlconvert -in <export.html> [-text out.md] [-jsonl out.jsonl]")
		return 2
	}

	base := strings.TrimSuffix(*input, ".html")
	if *textOut == "" {
		*textOut = base + ".md"
	}
	if *jsonlOut == "" {
		*jsonlOut = base + ".jsonl"
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Error("Failed to open input file", "path", *input, "error", err)
		return 1
	}
	items, err := htmlexport.Convert(f)
	if closeErr := f.Close(); closeErr != nil {
		log.Warn("Error closing input file", "error", closeErr)
	}
	if err != nil {
		log.Error("Failed to parse HTML export", "path", *input, "error", err)
		return 1
	}

	if err := writeFile(*textOut, func(f *os.File) error {
		return htmlexport.WriteMarkdown(f, items)
	}); err != nil {
		log.Error("Failed to write transcript", "path", *textOut, "error", err)
		return 1
	}
	if err := writeFile(*jsonlOut, func(f *os.File) error {
		return htmlexport.WriteJSONL(f, items)
	}); err != nil {
		log.Error("Failed to write JSONL", "path", *jsonlOut, "error", err)
		return 1
	}

	log.Info("Conversion finished", "messages", len(items), "text", *textOut, "jsonl", *jsonlOut)
	fmt.Printf("Сообщений: %d\n%s\n%s\n", len(items), *textOut, *jsonlOut)
	return 0
}

func writeFile(path string, write func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return write(f)
}
