package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dpetrovs/localsync/internal/netx"
	"github.com/dpetrovs/localsync/internal/server/auth"
	"github.com/dpetrovs/localsync/internal/server/models"
	"github.com/gin-gonic/gin"
)

// adminAuthMiddleware gates the cleanup and debug endpoints behind a
// bearer token signed with the server secret.
func (s *Server) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			respondError(c, http.StatusUnauthorized, errors.New("missing bearer token"))
			c.Abort()
			return
		}
		if err := auth.CheckAdmin(token, []byte(s.config.SecretKey)); err != nil {
			respondError(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// cleanup sweeps expired file entries across all records and deletes the
// blobs behind them. Invoked by a scheduled job; the engine never
// schedules itself.
func (s *Server) cleanup(c *gin.Context) {
	ctx := c.Request.Context()

	removed, err := s.sync.SweepAll(ctx)
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	s.blob.CleanupEntries(ctx, removed)

	respondOK(c, gin.H{
		"filesDeleted": len(removed),
		"message":      fmt.Sprintf("Cleaned up %d expired files", len(removed)),
	})
}

func (s *Server) cleanupInfo(c *gin.Context) {
	respondOK(c, gin.H{
		"message":          "Cleanup endpoint is active",
		"info":             "POST to this endpoint to trigger cleanup",
		"expirationPolicy": s.config.RetentionWindow.String(),
		"durable":          s.sync.Durable(),
	})
}

type debugRequest struct {
	UserID string `json:"userId"`
	Action string `json:"action"`
}

// debug exposes the administrative record actions the debug console uses.
func (s *Server) debug(c *gin.Context) {
	var req debugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	key := netx.ClientKey(c.Request, req.UserID)

	switch req.Action {
	case "resetEverything":
		dropped, err := s.sync.ResetAll(ctx, key)
		if err != nil {
			respondError(c, statusFor(err), err)
			return
		}
		s.blob.CleanupEntries(ctx, dropped)
		respondOK(c, gin.H{"message": "Everything has been reset and deleted"})

	case "resetPassword":
		if _, err := s.sync.RemovePassword(ctx, key); err != nil {
			respondError(c, statusFor(err), err)
			return
		}
		respondOK(c, gin.H{"message": "Password removed"})

	case "deleteFiles":
		rec, err := s.sync.Get(ctx, key)
		if err != nil {
			respondError(c, statusFor(err), err)
			return
		}
		var dropped []models.FileEntry
		for _, f := range rec.Files {
			_, removed, err := s.sync.DeleteFile(ctx, key, f.ID)
			if err != nil {
				respondError(c, statusFor(err), err)
				return
			}
			if removed != nil {
				dropped = append(dropped, *removed)
			}
		}
		s.blob.CleanupEntries(ctx, dropped)
		respondOK(c, gin.H{"message": fmt.Sprintf("Deleted %d file references", len(dropped))})

	case "getStats":
		rec, err := s.sync.Get(ctx, key)
		if err != nil {
			respondError(c, statusFor(err), err)
			return
		}
		respondOK(c, gin.H{
			"textLength":  len(rec.Text),
			"filesCount":  len(rec.Files),
			"totalSize":   rec.TotalSize(),
			"isLocked":    rec.IsLocked,
			"createdAt":   rec.CreatedAt,
			"lastUpdated": rec.LastUpdated,
			"durable":     s.sync.Durable(),
		})

	default:
		respondError(c, http.StatusBadRequest, errors.New("invalid action"))
	}
}
