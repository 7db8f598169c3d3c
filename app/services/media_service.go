package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/shashiranjanraj/farmlink/pkg/apperr"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
	"github.com/shashiranjanraj/farmlink/pkg/metrics"
	"github.com/shashiranjanraj/farmlink/pkg/storage"
	"github.com/shashiranjanraj/farmlink/pkg/workerpool"
)

// Product images are stored at exactly this size.
const (
	ImageWidth  = 300
	ImageHeight = 300

	maxImageBytes = 8 << 20
	jpegQuality   = 85
)

// MsgBadImage is the field error for an unusable upload.
const MsgBadImage = "The image must be a jpeg, png, gif or webp file."

// MediaService resizes uploaded product images and stores them on a disk.
type MediaService struct {
	disk    storage.Disk
	pool    *workerpool.Pool
	metrics *metrics.Metrics
}

// NewMediaService returns a MediaService. m may be nil.
func NewMediaService(disk storage.Disk, pool *workerpool.Pool, m *metrics.Metrics) *MediaService {
	return &MediaService{disk: disk, pool: pool, metrics: m}
}

// SaveProductImage decodes r, resizes it to 300×300 on the worker pool and
// stores it under a random 16-hex-character name, which it returns.
func (s *MediaService) SaveProductImage(ctx context.Context, r io.Reader) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxImageBytes+1))
	if err != nil {
		return "", classify("read upload", err)
	}
	if len(raw) == 0 || len(raw) > maxImageBytes || !isAllowedImageMIME(http.DetectContentType(raw)) {
		s.count("rejected")
		return "", apperr.Field("image", MsgBadImage)
	}

	var (
		encoded []byte
		ext     string
		ctype   string
	)
	err = s.pool.Do(ctx, func() error {
		src, format, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return apperr.Field("image", MsgBadImage)
		}
		encoded, ext, ctype, err = encode(Resize(src, ImageWidth, ImageHeight), format)
		return err
	})
	if err != nil {
		s.count("failed")
		if errors.Is(err, workerpool.ErrPoolFull) || errors.Is(err, workerpool.ErrPoolClosed) {
			return "", apperr.Unavailable("image workers busy", err)
		}
		return "", classify("resize image", err)
	}

	name, err := randomName()
	if err != nil {
		return "", classify("name image", err)
	}
	name += ext
	if err := s.disk.Put(ctx, name, bytes.NewReader(encoded), ctype); err != nil {
		s.count("failed")
		return "", classify("store image", err)
	}

	s.count("stored")
	logger.WithCtx(ctx).Info("product image stored", "file", name, "bytes", len(encoded))
	return name, nil
}

// Delete removes a stored image; failures are only logged.
func (s *MediaService) Delete(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.disk.Delete(ctx, name); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.WithCtx(ctx).Warn("product image not removed", "file", name, "error", err)
	}
}

// URL is where clients fetch a stored image; "" for no image.
func (s *MediaService) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.disk.URL(name)
}

func (s *MediaService) count(status string) {
	if s.metrics != nil {
		s.metrics.ImagesProcessed.WithLabelValues(status).Inc()
	}
}

// Resize scales src to exactly w×h with Catmull-Rom resampling. The aspect
// ratio is not preserved.
func Resize(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func encode(img image.Image, format string) (data []byte, ext, contentType string, err error) {
	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), ".png", "image/png", nil
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), ".jpg", "image/jpeg", nil
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

func randomName() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
