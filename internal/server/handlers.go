// SPDX-License-Identifier: MIT
package server

import (
	"errors"
	"net/http"
	"strconv"

	"audiovis/internal/audio"
	"audiovis/internal/preset"
	"audiovis/internal/session"
	"audiovis/pkg/build"

	"github.com/gin-gonic/gin"
)

const (
	defaultWaveformSamples = 200
	maxWaveformSamples     = 10000
)

type handler struct {
	session *session.Session
	presets preset.Source
}

type playRequest struct {
	Offset float64 `json:"offset"`
}

type seekRequest struct {
	Time *float64 `json:"time" binding:"required"`
}

type volumeRequest struct {
	Volume *float64 `json:"volume" binding:"required"`
}

// statusFor maps engine and preset errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, audio.ErrNoAsset):
		return http.StatusConflict
	case errors.Is(err, audio.ErrDisposed), errors.Is(err, session.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, preset.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, preset.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, code int, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	c.AbortWithStatusJSON(code, body)
}

func (h *handler) health(c *gin.Context) {
	flags := build.GetBuildFlags()
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": flags.Name,
		"version": flags.Version,
		"commit":  flags.Commit,
		"session": h.session.ID(),
	})
}

func (h *handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Status())
}

// control runs fn on the session loop and replies with the fresh status.
func (h *handler) control(c *gin.Context, fn func(*audio.Engine) error) {
	if err := h.session.Do(c.Request.Context(), fn); err != nil {
		fail(c, statusFor(err), "transport command failed", err)
		return
	}
	c.JSON(http.StatusOK, h.session.Status())
}

func (h *handler) play(c *gin.Context) {
	var req playRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid play request", err)
			return
		}
	}
	h.control(c, func(e *audio.Engine) error { return e.Play(req.Offset) })
}

func (h *handler) pause(c *gin.Context) {
	h.control(c, (*audio.Engine).Pause)
}

func (h *handler) stop(c *gin.Context) {
	h.control(c, (*audio.Engine).Stop)
}

func (h *handler) seek(c *gin.Context) {
	var req seekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid seek request", err)
		return
	}
	h.control(c, func(e *audio.Engine) error { return e.Seek(*req.Time) })
}

func (h *handler) volume(c *gin.Context) {
	var req volumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid volume request", err)
		return
	}
	h.control(c, func(e *audio.Engine) error { return e.SetVolume(*req.Volume) })
}

func (h *handler) waveform(c *gin.Context) {
	samples := defaultWaveformSamples
	if q := c.Query("samples"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > maxWaveformSamples {
			fail(c, http.StatusBadRequest, "samples must be an integer in [1, 10000]", err)
			return
		}
		samples = n
	}

	var peaks []float64
	err := h.session.Do(c.Request.Context(), func(e *audio.Engine) error {
		var err error
		peaks, err = e.GenerateFullWaveform(samples)
		return err
	})
	if err != nil {
		fail(c, statusFor(err), "waveform unavailable", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"samples": len(peaks), "peaks": peaks})
}

func (h *handler) listPresets(c *gin.Context) {
	list, err := h.presets.List(c.Request.Context())
	if err != nil {
		fail(c, statusFor(err), "failed to list presets", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":  h.session.Presets().Load().Name,
		"presets": list,
	})
}

func (h *handler) setPreset(c *gin.Context) {
	p, err := h.presets.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, statusFor(err), "preset not available", err)
		return
	}
	if err := h.session.SetPreset(p); err != nil {
		fail(c, statusFor(err), "preset rejected", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": p.Name, "preset": p})
}
