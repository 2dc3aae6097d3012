// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"kasetinfo/internal/catalog"
	"kasetinfo/internal/imagehost"
	"kasetinfo/internal/metrics"
	"kasetinfo/internal/middleware"
	"kasetinfo/internal/models"
)

// Error messages shown to editors when a write fails after validation.
const (
	createFailedMessage = "เกิดข้อผิดพลาดในการเพิ่มเนื้อหา กรุณาลองใหม่อีกครั้ง"
	updateFailedMessage = "เกิดข้อผิดพลาดในการแก้ไขเนื้อหา กรุณาลองใหม่อีกครั้ง"
	uploadFailedMessage = "อัปโหลดรูปภาพไม่สำเร็จ กรุณาลองใหม่อีกครั้ง"
	noUploaderMessage   = "ยังไม่ได้ตั้งค่าที่เก็บรูปภาพ"
)

// CatalogWriter is the part of the content store the admin API mutates.
type CatalogWriter interface {
	Insert(ctx context.Context, n models.NewItem) (*models.Item, error)
	UpdateInPlace(ctx context.Context, updated models.Item) bool
}

// ItemUpdater persists item edits.
type ItemUpdater interface {
	Update(ctx context.Context, id uuid.UUID, p models.ItemPatch) (*models.Item, error)
}

// Admin groups the authenticated write endpoints.
type Admin struct {
	catalog  CatalogWriter
	items    ItemUpdater
	uploader imagehost.Uploader
}

// NewAdmin creates a new Admin handler group. uploader may be nil when no
// image host or bucket is configured; uploads then answer 503.
func NewAdmin(cat CatalogWriter, items ItemUpdater, uploader imagehost.Uploader) *Admin {
	return &Admin{catalog: cat, items: items, uploader: uploader}
}

// CreateItem validates and inserts a new item. On success the response
// carries the stored item; when the store returned no record the catalog
// has been refetched instead and the response is 202 with no item.
func (a *Admin) CreateItem(w http.ResponseWriter, r *http.Request) {
	var n models.NewItem
	if err := decodeJSON(w, r, &n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	n.Tags = cleanTags(n.Tags)
	if msg := validateNewItem(n); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	it, err := a.catalog.Insert(r.Context(), n)
	if err != nil {
		slog.Error("create item failed", "error", err, "title", n.Title)
		writeError(w, http.StatusInternalServerError, createFailedMessage)
		return
	}
	if it == nil {
		writeJSON(w, http.StatusAccepted, map[string]bool{"refetched": true})
		return
	}

	metrics.ItemMutations.WithLabelValues("create").Inc()
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		slog.Info("item created", "id", it.ID, "by", sess.Email)
	}
	writeJSON(w, http.StatusCreated, it)
}

// UpdateItem saves an edit from the detail view and applies the stored
// result to the in-memory catalog without refetching.
func (a *Admin) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, catalog.ErrNotFound.Error())
		return
	}

	var p models.ItemPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p.Tags = cleanTags(p.Tags)
	if msg := validatePatch(p); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	it, err := a.items.Update(r.Context(), id, p)
	if err != nil {
		slog.Error("update item failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, updateFailedMessage)
		return
	}
	if it == nil {
		writeError(w, http.StatusNotFound, catalog.ErrNotFound.Error())
		return
	}

	if !a.catalog.UpdateInPlace(r.Context(), *it) {
		slog.Warn("updated item not in catalog", "id", id)
	}
	metrics.ItemMutations.WithLabelValues("update").Inc()
	writeJSON(w, http.StatusOK, it)
}

// UploadImage accepts a multipart "file" field, validates it as an image,
// and sends it to the configured image host.
func (a *Admin) UploadImage(w http.ResponseWriter, r *http.Request) {
	if a.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, noUploaderMessage)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imagehost.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(imagehost.MaxUploadSize); err != nil {
		metrics.ImageUploads.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusRequestEntityTooLarge, imagehost.ErrTooLarge.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.ImageUploads.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, imagehost.ErrEmpty.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, imagehost.MaxUploadSize+1))
	if err != nil {
		metrics.ImageUploads.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadRequest, uploadFailedMessage)
		return
	}

	up, err := imagehost.Validate(header.Filename, data)
	if err != nil {
		metrics.ImageUploads.WithLabelValues("rejected").Inc()
		status := http.StatusUnprocessableEntity
		if errors.Is(err, imagehost.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, rootMessage(err))
		return
	}

	url, err := a.uploader.Upload(r.Context(), up)
	if err != nil {
		metrics.ImageUploads.WithLabelValues("error").Inc()
		slog.Error("image upload failed", "error", err, "filename", up.Filename)
		msg := uploadFailedMessage
		var hostErr *imagehost.HostError
		if errors.As(err, &hostErr) && hostErr.Message != "" {
			msg = hostErr.Message
		}
		writeError(w, http.StatusBadGateway, msg)
		return
	}

	metrics.ImageUploads.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusCreated, map[string]any{
		"url":     url,
		"preview": imagehost.Transform(url, imagehost.Card),
		"width":   up.Width,
		"height":  up.Height,
	})
}

// rootMessage returns the message of the sentinel an image error wraps,
// so clients see the localized text without decoder internals.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		imagehost.ErrEmpty, imagehost.ErrTooLarge,
		imagehost.ErrUnsupportedType, imagehost.ErrInvalidImage,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
