package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"memoir/internal/config"
	"memoir/internal/ingest"
	"memoir/internal/model"
)

// cmdConfig saves blob store connection settings. Flags override, and
// anything not flagged is prompted with the stored value as default.
func cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	endpoint := fs.String("endpoint", "", "blob store endpoint (host:port)")
	accessKey := fs.String("access-key", "", "access key")
	secretKey := fs.String("secret-key", "", "secret key")
	bucket := fs.String("bucket", "", "bucket name")
	useSSL := fs.Bool("use-ssl", false, "use TLS for the blob store connection")
	fs.Parse(args)

	cfg := config.LoadFile()

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	in := bufio.NewReader(os.Stdin)
	apply := func(name, label string, dst *string, val string) {
		if set[name] {
			*dst = val
			return
		}
		fmt.Printf("%s [%s]: ", label, *dst)
		line, _ := in.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			*dst = line
		}
	}

	apply("endpoint", "Endpoint", &cfg.Endpoint, *endpoint)
	apply("access-key", "Access key", &cfg.AccessKey, *accessKey)
	apply("secret-key", "Secret key", &cfg.SecretKey, *secretKey)
	apply("bucket", "Bucket", &cfg.Bucket, *bucket)
	if set["use-ssl"] {
		cfg.UseSSL = *useSSL
	}

	if !cfg.Blob().Complete() {
		return errors.New("configuration incomplete; endpoint, access key, secret key and bucket are all required")
	}

	if err := config.SaveFile(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	path, _ := config.Path()
	fmt.Println("saved", path)
	return nil
}

func cmdUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "report the plan without writing blobs or index entries")
	recursive := fs.Bool("recursive", false, "walk subdirectories")
	skipDup := fs.Bool("skip-duplicates", false, "skip files whose content is already indexed")
	dateStr := fs.String("date", "", "capture date (YYYY-MM-DD) for files without one")
	forceDate := fs.Bool("force-date", false, "apply -date to every file, embedded dates notwithstanding")
	verbose := fs.Bool("verbose", false, "log pipeline progress to stderr")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: memoir-uploader upload <folder> [flags]")
	}
	folder := fs.Arg(0)

	opts := ingest.Options{
		DryRun:         *dryRun,
		Recursive:      *recursive,
		SkipDuplicates: *skipDup,
		ForceDate:      *forceDate,
	}
	if *dateStr != "" {
		t, err := time.Parse("2006-01-02", *dateStr)
		if err != nil {
			return fmt.Errorf("invalid -date %q: expected YYYY-MM-DD", *dateStr)
		}
		opts.OverrideDate = &t
	} else if *forceDate {
		return errors.New("-force-date requires -date")
	}

	store, idx, err := connect()
	if err != nil {
		return err
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	summary, err := ingest.NewIngestor(store, idx, logger).UploadFolder(context.Background(), folder, opts)
	if err != nil {
		return err
	}

	for _, r := range summary.Results {
		switch r.Status {
		case ingest.StatusUploaded:
			fmt.Printf("uploaded   %s -> %s (%s)\n", r.Path, r.Partition, r.PhotoID)
		case ingest.StatusPlanned:
			fmt.Printf("planned    %s -> %s\n", r.Path, r.Partition)
		case ingest.StatusSkippedDuplicate:
			fmt.Printf("skipped    %s (duplicate)\n", r.Path)
		case ingest.StatusSkippedUnsupported:
			fmt.Printf("skipped    %s (unsupported format)\n", r.Path)
		case ingest.StatusFailed:
			fmt.Printf("failed     %s: %s\n", r.Path, r.Reason)
		}
	}

	// Per-file failures are reported in the summary, not the exit code.
	fmt.Printf("\n%d uploaded, %d planned, %d duplicates skipped, %d unsupported, %d failed\n",
		summary.Uploaded, summary.Planned, summary.SkippedDuplicate, summary.SkippedUnsupported, summary.Failed)
	return nil
}

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Parse(args)

	_, idx, err := connect()
	if err != nil {
		return err
	}

	ctx := context.Background()
	parts, err := idx.Partitions(ctx)
	if err != nil {
		return err
	}
	sort.Strings(parts)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PARTITION\tPHOTOS\tSIZE")

	var totalCount int
	var totalSize int64
	for _, part := range parts {
		photos, err := idx.Read(ctx, part)
		if err != nil {
			return err
		}
		var size int64
		for _, p := range photos {
			size += p.SizeBytes
		}
		totalCount += len(photos)
		totalSize += size
		fmt.Fprintf(w, "%s\t%d\t%s\n", part, len(photos), formatSize(size))
	}
	fmt.Fprintf(w, "total\t%d\t%s\n", totalCount, formatSize(totalSize))
	return w.Flush()
}

func cmdPhotos(args []string) error {
	fs := flag.NewFlagSet("photos", flag.ExitOnError)
	limit := fs.Int("limit", 20, "maximum records to print")
	fs.Parse(args)

	_, idx, err := connect()
	if err != nil {
		return err
	}

	ctx := context.Background()
	parts := fs.Args()
	if len(parts) == 0 {
		if parts, err = idx.Partitions(ctx); err != nil {
			return err
		}
	}

	type taggedRecord struct {
		part string
		rec  model.PhotoRecord
	}
	var all []taggedRecord
	for _, part := range parts {
		photos, err := idx.Read(ctx, part)
		if err != nil {
			return err
		}
		for _, p := range photos {
			all = append(all, taggedRecord{part: part, rec: p})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].rec.TakenAt.After(all[j].rec.TakenAt) })
	if *limit > 0 && len(all) > *limit {
		all = all[:*limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTAKEN\tPARTITION\tFILENAME\tSIZE")
	for _, t := range all {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.rec.ID, t.rec.TakenAt.Format("2006-01-02 15:04"), t.part, t.rec.Filename, formatSize(t.rec.SizeBytes))
	}
	return w.Flush()
}

func cmdShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: memoir-uploader show <id>")
	}
	id := fs.Arg(0)

	_, idx, err := connect()
	if err != nil {
		return err
	}

	part, rec, err := ingest.FindPhoto(context.Background(), idx, id)
	if err != nil {
		return err
	}

	hash := rec.Hash
	if len(hash) > 12 {
		hash = hash[:12]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", rec.ID)
	fmt.Fprintf(w, "filename\t%s\n", rec.Filename)
	fmt.Fprintf(w, "partition\t%s\n", part)
	fmt.Fprintf(w, "taken\t%s\n", rec.TakenAt.Format(time.RFC3339))
	fmt.Fprintf(w, "uploaded\t%s\n", rec.UploadedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "dimensions\t%dx%d\n", rec.Width, rec.Height)
	fmt.Fprintf(w, "size\t%s\n", formatSize(rec.SizeBytes))
	fmt.Fprintf(w, "hash\t%s\n", hash)
	fmt.Fprintf(w, "original\t%s\n", rec.OriginalBlob)
	fmt.Fprintf(w, "thumbnail\t%s\n", rec.ThumbnailBlob)
	if rec.Exif != nil {
		if rec.Exif.Camera != "" {
			fmt.Fprintf(w, "camera\t%s\n", rec.Exif.Camera)
		}
		if rec.Exif.FocalLength != "" {
			fmt.Fprintf(w, "focal length\t%s\n", rec.Exif.FocalLength)
		}
		if rec.Exif.Aperture != "" {
			fmt.Fprintf(w, "aperture\t%s\n", rec.Exif.Aperture)
		}
		if rec.Exif.ISO != 0 {
			fmt.Fprintf(w, "iso\t%d\n", rec.Exif.ISO)
		}
	}
	return w.Flush()
}

func cmdDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	force := fs.Bool("force", false, "delete without confirmation")
	verbose := fs.Bool("verbose", false, "log deletion steps to stderr")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: memoir-uploader delete <id> [-force]")
	}
	id := fs.Arg(0)

	store, idx, err := connect()
	if err != nil {
		return err
	}

	if !*force {
		fmt.Printf("Delete photo %s and its blobs? [y/N]: ", id)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Println("aborted")
			return nil
		}
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	rec, err := ingest.NewDeleter(store, idx, logger).Delete(context.Background(), id)
	if err != nil {
		if errors.Is(err, ingest.ErrPhotoNotFound) {
			return fmt.Errorf("photo %s not found", id)
		}
		return err
	}
	fmt.Printf("deleted %s (%s)\n", rec.ID, rec.Filename)
	return nil
}
