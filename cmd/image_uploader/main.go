package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"itemsclassification/core"
	"itemsclassification/internal/blob"
)

// image_uploader copies item images named {origin_id}.jpg from a local
// directory into the images container.
func main() {
	dir := flag.String("dir", ".", "directory holding the images")
	overwrite := flag.Bool("overwrite", false, "upload images that already exist in the container")
	workers := flag.Int("workers", 8, "number of concurrent uploads")
	flag.Parse()

	cfg, err := core.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := core.NewLogger(cfg.Server.Environment, cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalw("Cannot connect to blob storage", "error", err)
	}

	u := uploader{
		storage:   storage,
		container: cfg.Storage.ImagesContainer,
		overwrite: *overwrite,
		workers:   *workers,
		logger:    logger,
	}

	stats, err := u.run(ctx, *dir)
	if err != nil {
		logger.Fatalw("Upload failed", "uploaded", stats.uploaded, "error", err)
	}

	count, err := storage.CountBlobs(ctx, u.container)
	if err != nil {
		logger.Warnw("Cannot count images", "error", err)
	}

	logger.Infow("Upload finished", "uploaded", stats.uploaded, "skipped", stats.skipped, "ignored", stats.ignored, "container_total", count)
}

type uploader struct {
	storage   blob.Storage
	container string
	overwrite bool
	workers   int
	logger    *zap.SugaredLogger
}

type stats struct {
	uploaded int64
	skipped  int64
	ignored  int64
}

// itemID returns the origin id encoded in an image file name.
func itemID(name string) (int64, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".jpg" && ext != ".jpeg" {
		return 0, false
	}

	id, err := strconv.ParseInt(strings.TrimSuffix(name, filepath.Ext(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (u uploader) run(ctx context.Context, dir string) (*stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &stats{}, err
	}

	var st stats

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(u.workers, 1))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		id, ok := itemID(entry.Name())
		if !ok {
			u.logger.Debugw("Ignoring file", "file", entry.Name())
			atomic.AddInt64(&st.ignored, 1)
			continue
		}

		path := filepath.Join(dir, entry.Name())
		g.Go(func() error {
			uploaded, err := u.upload(ctx, id, path)
			if err != nil {
				return fmt.Errorf("%v: %w", path, err)
			}
			if uploaded {
				atomic.AddInt64(&st.uploaded, 1)
			} else {
				atomic.AddInt64(&st.skipped, 1)
			}
			return nil
		})
	}

	err = g.Wait()
	return &st, err
}

func (u uploader) upload(ctx context.Context, id int64, path string) (bool, error) {
	name := blob.ImageName(id)

	if !u.overwrite {
		exists, err := u.storage.Exists(ctx, u.container, name)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	if err := u.storage.Upload(ctx, u.container, name, http.DetectContentType(data), data); err != nil {
		return false, err
	}

	u.logger.Debugw("Uploaded image", "item_id", id, "blob", name)
	return true, nil
}
