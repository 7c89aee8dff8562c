package product

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/lavka/lavka-api/internal/middleware"
	"github.com/lavka/lavka-api/internal/pkg/response"
	"github.com/lavka/lavka-api/internal/pkg/storage"
)

const (
	maxImageSize = 10 << 20 // 10 MB

	// ThumbnailQueue is the redis list the image worker consumes
	ThumbnailQueue = "lavka:thumbnails"
)

// ThumbnailJob tells the image worker which object to resize
type ThumbnailJob struct {
	ProductID string `json:"product_id"`
	Key       string `json:"key"`
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageHandler serves product image uploads
type ImageHandler struct {
	service Service
	store   storage.Storage
	rdb     *redis.Client
	audit   Recorder
}

// NewImageHandler creates an image upload handler
func NewImageHandler(service Service, store storage.Storage, rdb *redis.Client, audit Recorder) *ImageHandler {
	return &ImageHandler{service: service, store: store, rdb: rdb, audit: audit}
}

// Upload stores a product image and enqueues thumbnail generation (admin only)
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid product id")
		return
	}

	if _, err := h.service.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			response.NotFound(w, "product not found")
			return
		}
		log.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product")
		response.InternalError(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		response.BadRequest(w, "image too large or malformed form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "image file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		ext = strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
			response.BadRequest(w, "unsupported image type")
			return
		}
	}

	key := fmt.Sprintf("products/%s/original%s", id, ext)
	if err := h.store.Put(r.Context(), key, file, contentType); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to store image")
		response.InternalError(w)
		return
	}

	imageURL := h.store.PublicURL(key)
	if err := h.service.SetImageURL(r.Context(), id, imageURL); err != nil {
		log.Error().Err(err).Str("product_id", id.String()).Msg("failed to save image url")
		response.InternalError(w)
		return
	}

	h.enqueueThumbnail(r, id, key)

	if h.audit != nil {
		if adminID, err := middleware.GetUserID(r.Context()); err == nil {
			h.audit.RecordAction(adminID, "product.image_upload", "product", id)
		}
	}

	response.OK(w, map[string]string{"image_url": imageURL})
}

func (h *ImageHandler) enqueueThumbnail(r *http.Request, id uuid.UUID, key string) {
	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(ThumbnailJob{ProductID: id.String(), Key: key})
	if err != nil {
		return
	}
	if err := h.rdb.LPush(r.Context(), ThumbnailQueue, payload).Err(); err != nil {
		log.Warn().Err(err).Str("product_id", id.String()).Msg("failed to enqueue thumbnail job")
	}
}
