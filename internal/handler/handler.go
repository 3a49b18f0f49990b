package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tejomayadarshan/rfid-api/internal/attendance"
	"github.com/tejomayadarshan/rfid-api/internal/metrics"
)

// Handler exposes the reader-facing HTTP surface.
type Handler struct {
	svc *attendance.Service
}

// New creates a handler around the attendance service.
func New(svc *attendance.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the routes on a gin router.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/uid/:uid", h.Lookup)
	r.GET("/status/:name", h.StatusByName)
	r.POST("/log", h.Log)
}

// Root is a liveness-ish banner some reader firmwares probe on boot.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": "RFID API"})
}

// Lookup returns a card holder's public fields. Unknown cards and missing
// phone numbers both come back as empty strings; the caller cannot tell
// the two apart and does not need to.
func (h *Handler) Lookup(c *gin.Context) {
	st, err := h.svc.Resolve(c.Request.Context(), c.Param("uid"))
	switch {
	case errors.Is(err, attendance.ErrNotFound), errors.Is(err, attendance.ErrEmptyUID):
		c.JSON(http.StatusOK, gin.H{"name": "", "phone": ""})
	case err != nil:
		log.Printf("lookup uid failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"name": "", "phone": ""})
	default:
		c.JSON(http.StatusOK, gin.H{"name": st.Name, "phone": st.Phone})
	}
}

// StatusByName returns a student's last-known status as plain text, the
// shape the reader's auto entry/exit detection expects. A name with no
// student or no rows is just "None".
func (h *Handler) StatusByName(c *gin.Context) {
	status, err := h.svc.LastStatusByName(c.Request.Context(), c.Param("name"))
	switch {
	case errors.Is(err, attendance.ErrNotFound):
		c.String(http.StatusOK, string(attendance.StatusNone))
	case err != nil:
		log.Printf("status lookup failed: %v", err)
		c.String(http.StatusInternalServerError, "Server Error")
	default:
		c.String(http.StatusOK, string(status))
	}
}

type logRequest struct {
	UID    string `json:"uid"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Log records one scan. The canonical form carries just the card uid and
// the server computes the entry/exit toggle; the legacy form carries a
// pre-resolved name and status from readers that toggle client-side.
func (h *Handler) Log(c *gin.Context) {
	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.Scans.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "invalid body"})
		return
	}

	switch {
	case req.UID != "":
		h.logByUID(c, req.UID)
	case req.Name != "" && req.Status != "":
		h.logByName(c, req.Name, req.Status)
	default:
		metrics.Scans.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "missing parameters"})
	}
}

func (h *Handler) logByUID(c *gin.Context, uid string) {
	st, l, err := h.svc.LogScan(c.Request.Context(), uid)
	switch {
	case errors.Is(err, attendance.ErrEmptyUID):
		metrics.Scans.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "missing parameters"})
	case errors.Is(err, attendance.ErrNotFound):
		metrics.Scans.WithLabelValues("unknown").Inc()
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "msg": "unknown card"})
	case err != nil:
		metrics.Scans.WithLabelValues("error").Inc()
		log.Printf("log scan failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "msg": "server error"})
	default:
		metrics.Scans.WithLabelValues("ok").Inc()
		c.JSON(http.StatusOK, gin.H{"ok": true, "name": st.Name, "status": l.Status})
	}
}

func (h *Handler) logByName(c *gin.Context, name, rawStatus string) {
	status, ok := attendance.ParseStatus(rawStatus)
	if !ok {
		metrics.Scans.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "invalid status"})
		return
	}
	st, l, err := h.svc.RecordStatus(c.Request.Context(), name, status)
	switch {
	case errors.Is(err, attendance.ErrNotFound):
		metrics.Scans.WithLabelValues("unknown").Inc()
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "msg": "unknown student"})
	case err != nil:
		metrics.Scans.WithLabelValues("error").Inc()
		log.Printf("log status failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "msg": "server error"})
	default:
		metrics.Scans.WithLabelValues("ok").Inc()
		c.JSON(http.StatusOK, gin.H{"ok": true, "name": st.Name, "status": l.Status})
	}
}
