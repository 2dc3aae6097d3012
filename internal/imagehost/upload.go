// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imagehost uploads item images to a third-party image host or to
// S3-compatible storage and rewrites stored image URLs with display-time
// transformation parameters.
package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/http"

	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxUploadSize is the largest accepted image file (10 MB).
	MaxUploadSize = 10 << 20

	// maxImagePixels caps decoded dimensions to reject decompression bombs.
	maxImagePixels = 50_000_000
)

var (
	ErrEmpty           = errors.New("ไม่พบไฟล์รูปภาพ")
	ErrTooLarge        = errors.New("ไฟล์รูปภาพมีขนาดใหญ่เกินไป")
	ErrUnsupportedType = errors.New("รองรับเฉพาะไฟล์ JPEG, PNG, GIF และ WebP")
	ErrInvalidImage    = errors.New("ไฟล์รูปภาพไม่ถูกต้อง")
)

// allowedTypes are the sniffed MIME types accepted for upload.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload is a validated image ready to send.
type Upload struct {
	Filename    string
	ContentType string
	Width       int
	Height      int
	Data        []byte
}

// Ext returns the file extension for the upload's content type.
func (u Upload) Ext() string {
	return allowedTypes[u.ContentType]
}

// Uploader sends an image somewhere durable and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, u Upload) (string, error)
}

// Validate checks an image file before upload: size, sniffed content
// type, and decodable dimensions within the pixel cap.
func Validate(filename string, data []byte) (Upload, error) {
	if len(data) == 0 {
		return Upload{}, ErrEmpty
	}
	if len(data) > MaxUploadSize {
		return Upload{}, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	if _, ok := allowedTypes[contentType]; !ok {
		return Upload{}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Upload{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return Upload{}, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	return Upload{
		Filename:    filename,
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Data:        data,
	}, nil
}
