package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/lavka/lavka-api/internal/config"
	"github.com/lavka/lavka-api/internal/domain/product"
	"github.com/lavka/lavka-api/internal/pkg/database"
	"github.com/lavka/lavka-api/internal/pkg/logger"
	"github.com/lavka/lavka-api/internal/pkg/storage"
)

const (
	popTimeout      = 5 * time.Second
	maxOriginalSide = 2000
	jpegQuality     = 85
)

var thumbnailSizes = []int{200, 400, 800}

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().Msg("Starting image-worker")

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	store, err := storage.NewS3Storage(storage.S3Config{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		Region:    cfg.StorageRegion,
		PublicURL: cfg.StoragePublicURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create object storage client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	lastIdleLog := time.Time{}
	idleLogEvery := 1 * time.Minute

	for {
		if ctx.Err() != nil {
			log.Info().Msg("image-worker stopped")
			return
		}

		job, ok, err := nextJob(ctx, rdb)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("image-worker stopped")
				return
			}
			log.Error().Err(err).Msg("Redis error while waiting for job")
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			now := time.Now()
			if lastIdleLog.IsZero() || now.Sub(lastIdleLog) >= idleLogEvery {
				log.Info().Msg("Idle: no thumbnail jobs queued")
				lastIdleLog = now
			}
			continue
		}

		start := time.Now()
		log.Info().
			Str("product_id", job.ProductID).
			Str("key", job.Key).
			Msg("Processing image")

		width, height, err := processOne(ctx, store, job.Key)
		if err != nil {
			log.Error().
				Err(err).
				Str("product_id", job.ProductID).
				Msg("Processing failed")
			continue
		}

		log.Info().
			Str("product_id", job.ProductID).
			Dur("took", time.Since(start)).
			Int("width", width).
			Int("height", height).
			Msg("Processing done")
	}
}

// nextJob blocks on the thumbnail queue for up to popTimeout. A timeout is
// not an error, it just means the queue was empty.
func nextJob(ctx context.Context, rdb *redis.Client) (*product.ThumbnailJob, bool, error) {
	res, err := rdb.BRPop(ctx, popTimeout, product.ThumbnailQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	// BRPOP returns [queue, payload]
	if len(res) != 2 {
		return nil, false, fmt.Errorf("unexpected brpop reply of %d elements", len(res))
	}

	var job product.ThumbnailJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, false, fmt.Errorf("decode job: %w", err)
	}
	return &job, true, nil
}

func processOne(ctx context.Context, st storage.Storage, originalKey string) (int, int, error) {
	rc, err := st.Get(ctx, originalKey)
	if err != nil {
		return 0, 0, fmt.Errorf("download: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return 0, 0, fmt.Errorf("read: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode: %w", err)
	}

	// Optimize original: cap the longest side and re-encode as JPEG.
	opt := img
	if max(imgWidth(img), imgHeight(img)) > maxOriginalSide {
		opt = imaging.Fit(img, maxOriginalSide, maxOriginalSide, imaging.Lanczos)
	}

	var optBuf bytes.Buffer
	if err := imaging.Encode(&optBuf, opt, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return 0, 0, fmt.Errorf("encode optimized: %w", err)
	}

	if err := st.Put(ctx, originalKey, bytes.NewReader(optBuf.Bytes()), "image/jpeg"); err != nil {
		return 0, 0, fmt.Errorf("upload optimized: %w", err)
	}

	base := strings.TrimSuffix(originalKey, path.Ext(originalKey))

	for _, s := range thumbnailSizes {
		thumb := imaging.Fit(opt, s, s, imaging.Lanczos)

		var b bytes.Buffer
		if err := imaging.Encode(&b, thumb, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
			return 0, 0, fmt.Errorf("encode thumb %d: %w", s, err)
		}

		thumbKey := fmt.Sprintf("%s_thumb%d.jpg", base, s)
		if err := st.Put(ctx, thumbKey, bytes.NewReader(b.Bytes()), "image/jpeg"); err != nil {
			return 0, 0, fmt.Errorf("upload thumb %d: %w", s, err)
		}
	}

	return imgWidth(opt), imgHeight(opt), nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func imgWidth(i image.Image) int {
	return i.Bounds().Dx()
}

func imgHeight(i image.Image) int {
	return i.Bounds().Dy()
}
