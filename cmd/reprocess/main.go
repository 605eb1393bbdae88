package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hakbank/harvester/internal/crawl"
	"github.com/hakbank/harvester/pkg/logging"
)

// reprocess re-runs text and problem extraction on an already downloaded
// document, without crawling.
func main() {
	var (
		filePath = flag.String("file", "", "path to the document")
		fileType = flag.String("type", "", "file type (pdf, docx, html, txt); inferred from the extension when empty")
		logLevel = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = *logLevel
	logCfg.Format = "pretty"
	if err := logging.SetupLogger(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}

	if *filePath == "" {
		log.Fatal().Msg("A file path is required (-file)")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *filePath).Msg("Failed to read file")
	}

	docType := *fileType
	if docType == "" {
		docType = strings.TrimPrefix(filepath.Ext(*filePath), ".")
	}

	service := crawl.NewService()
	result, err := service.ReprocessFile(context.Background(), data, docType)
	if err != nil {
		log.Fatal().Err(err).Str("type", docType).Msg("Extraction failed")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}
	fmt.Println(string(out))
}
