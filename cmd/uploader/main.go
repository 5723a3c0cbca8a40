// Command uploader is the ingestion CLI. It organizes photos into the
// blob store by capture date and manages the per-partition index
// documents the read API serves from.
package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"memoir/internal/config"
	"memoir/internal/index"
	"memoir/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "config":
		err = cmdConfig(args)
	case "upload":
		err = cmdUpload(args)
	case "list":
		err = cmdList(args)
	case "photos":
		err = cmdPhotos(args)
	case "show":
		err = cmdShow(args)
	case "delete":
		err = cmdDelete(args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: memoir-uploader <command> [flags]

Commands:
  config    save blob store connection settings to ~/.memoir-uploader/config.json
  upload    upload a folder of photos
  list      per-partition photo counts and sizes
  photos    recent photo records
  show      full record for one photo id
  delete    remove a photo and its blobs

Run "memoir-uploader <command> -h" for command flags.
`)
}

// newLogger builds the operational logger. User-facing output goes to
// stdout; zap stays on stderr and is quiet unless -verbose is set.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadBlobConfig merges the operator config file with the environment,
// environment variables taking precedence.
func loadBlobConfig() config.BlobConfig {
	blob := config.LoadFile().Blob()
	env := config.Load().Blob
	if env.Endpoint != "" {
		blob.Endpoint = env.Endpoint
	}
	if env.AccessKey != "" {
		blob.AccessKey = env.AccessKey
	}
	if env.SecretKey != "" {
		blob.SecretKey = env.SecretKey
	}
	if env.Bucket != "" {
		blob.Bucket = env.Bucket
	}
	if _, ok := os.LookupEnv("MINIO_USE_SSL"); ok {
		blob.UseSSL = env.UseSSL
	}
	return blob
}

// connect builds the storage client and index store, failing fast on
// incomplete configuration.
func connect() (storage.Storage, index.Store, error) {
	blob := loadBlobConfig()
	if !blob.Complete() {
		return nil, nil, fmt.Errorf("blob store not configured; run \"memoir-uploader config\" or set MINIO_* environment variables")
	}
	store, err := storage.NewMinIO(blob)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to blob store: %w", err)
	}
	return store, index.NewBlobStore(store), nil
}

// formatSize renders byte counts with decimal units, e.g. "2.4 MB".
func formatSize(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1f GB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1f MB", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1f KB", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
