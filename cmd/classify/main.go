// Command classify runs the skin condition classifier on local image files
// and prints one JSON object per file.
//
//	classify [-config skinsense.yaml] face.jpg [more.png ...]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Brownie44l1/skinsense-api/internal/app"
	"github.com/Brownie44l1/skinsense-api/internal/config"
	"github.com/Brownie44l1/skinsense-api/internal/logging"
	"github.com/Brownie44l1/skinsense-api/internal/prediction"
)

type output struct {
	File string `json:"file"`
	*prediction.Result
	Error string `json:"error,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config file] image...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer a.Close()

	if !classifyFiles(context.Background(), a.Service, flag.Args(), os.Stdout) {
		a.Close()
		os.Exit(1)
	}
}

// classifyFiles writes one result line per path and reports whether every
// file was classified.
func classifyFiles(ctx context.Context, svc *prediction.Service, paths []string, w io.Writer) bool {
	enc := json.NewEncoder(w)
	ok := true

	for _, path := range paths {
		out := output{File: path}

		data, err := os.ReadFile(path)
		if err == nil {
			out.Result, err = svc.Predict(ctx, data)
		}
		if err != nil {
			ok = false
			out.Error = describe(err)
		}

		if err := enc.Encode(out); err != nil {
			return false
		}
	}
	return ok
}

func describe(err error) string {
	switch {
	case errors.Is(err, prediction.ErrInvalidImage):
		return "invalid image"
	case errors.Is(err, prediction.ErrRuntimeUnavailable):
		return "model not loaded"
	case errors.Is(err, prediction.ErrInferenceTimeout):
		return "inference timed out"
	case errors.Is(err, prediction.ErrInternal):
		return "internal error"
	default:
		return err.Error()
	}
}
