package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dpetrovs/localsync/internal/common"
	"github.com/dpetrovs/localsync/internal/filex"
	"github.com/dpetrovs/localsync/internal/netx"
	"github.com/dpetrovs/localsync/internal/server/models"
	"github.com/dpetrovs/localsync/internal/server/services"
	"github.com/dpetrovs/localsync/internal/timex"
	"github.com/gin-gonic/gin"
)

// apiResponse is the envelope every endpoint answers with, matching what
// the polling dashboard expects.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, apiResponse{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, apiResponse{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrEmptyKey):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrBlobNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) health(c *gin.Context) {
	respondOK(c, gin.H{
		"status":  "ok",
		"durable": s.sync.Durable(),
	})
}

func (s *Server) getSync(c *gin.Context) {
	key := netx.ClientKey(c.Request, c.Query("userId"))

	rec, err := s.sync.Get(c.Request.Context(), key)
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	respondOK(c, rec)
}

// syncRequest is the action-dispatch body for POST /api/sync.
type syncRequest struct {
	UserID       string            `json:"userId"`
	Action       string            `json:"action"`
	Text         string            `json:"text"`
	File         *models.FileEntry `json:"file"`
	FileID       string            `json:"fileId"`
	PasswordHash string            `json:"passwordHash"`
}

func (s *Server) postSync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	key := netx.ClientKey(c.Request, req.UserID)

	var (
		rec *models.SyncRecord
		err error
	)

	switch req.Action {
	case "updateText":
		rec, err = s.sync.UpdateText(ctx, key, req.Text)

	case "addFile":
		if req.File == nil {
			respondError(c, http.StatusBadRequest, errors.New("file is required"))
			return
		}
		rec, err = s.sync.AddFile(ctx, key, *req.File)

	case "deleteFile":
		var removed *models.FileEntry
		rec, removed, err = s.sync.DeleteFile(ctx, key, req.FileID)
		if err == nil && removed != nil {
			s.blob.CleanupEntries(ctx, []models.FileEntry{*removed})
		}

	case "setPassword":
		rec, err = s.sync.SetPassword(ctx, key, req.PasswordHash)

	case "removePassword":
		rec, err = s.sync.RemovePassword(ctx, key)

	case "verifyPassword":
		valid, verr := s.sync.VerifyPassword(ctx, key, req.PasswordHash)
		if verr != nil {
			respondError(c, statusFor(verr), verr)
			return
		}
		respondOK(c, gin.H{"isValid": valid})
		return

	default:
		respondError(c, http.StatusBadRequest, errors.New("invalid action"))
		return
	}

	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	respondOK(c, rec)
}

type uploadRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
}

// upload hands the client a presigned PUT URL. The client uploads the
// bytes directly to the blob store, then registers the metadata through
// the addFile action.
func (s *Server) upload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Size < 0 || req.Size > s.config.MaxUploadSize {
		respondError(c, http.StatusBadRequest, errors.New("file size exceeds upload limit"))
		return
	}

	id, err := common.MakeRandHexString(16)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	ctx := c.Request.Context()
	storageKey, url, err := s.blob.GetPresignedPutURL(ctx)
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}

	respondOK(c, gin.H{
		"id":           id,
		"name":         filex.SanitizeName(req.Name),
		"size":         req.Size,
		"uploadedAt":   time.Now(),
		"uploadUrl":    url,
		"externalRef":  storageKey,
		"externalKind": services.ExternalKindS3,
	})
}

func (s *Server) download(c *gin.Context) {
	key := netx.ClientKey(c.Request, c.Query("userId"))
	fileID := c.Query("fileId")
	if fileID == "" {
		respondError(c, http.StatusBadRequest, errors.New("fileId is required"))
		return
	}

	ctx := c.Request.Context()
	rec, err := s.sync.Get(ctx, key)
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}

	entry := rec.FileByID(fileID)
	if entry == nil {
		respondError(c, http.StatusNotFound, errors.New("file not found"))
		return
	}

	url := entry.URL
	if entry.ExternalKind == services.ExternalKindS3 && entry.ExternalRef != "" && s.blob.Enabled() {
		url, err = s.blob.GetPresignedGetURL(ctx, entry.ExternalRef)
		if err != nil {
			respondError(c, statusFor(err), err)
			return
		}
	}

	respondOK(c, gin.H{
		"url":       url,
		"name":      entry.Name,
		"expiresIn": timex.FormatRemaining(s.sync.TimeRemaining(entry.UploadedAt)),
	})
}

type deleteFileRequest struct {
	UserID string `json:"userId"`
	FileID string `json:"fileId"`
}

func (s *Server) deleteFile(c *gin.Context) {
	var req deleteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.FileID == "" {
		respondError(c, http.StatusBadRequest, errors.New("fileId is required"))
		return
	}

	ctx := c.Request.Context()
	key := netx.ClientKey(c.Request, req.UserID)

	rec, removed, err := s.sync.DeleteFile(ctx, key, req.FileID)
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	if removed != nil {
		s.blob.CleanupEntries(ctx, []models.FileEntry{*removed})
	}
	respondOK(c, rec)
}
