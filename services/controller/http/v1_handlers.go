package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mossline/verdant-controller/services/controller/engine"
)

// handleIngestSample is the ingestion boundary: one sensor sample in, one
// actuator command set out. When the busy-window store is unreachable the
// response fails closed with every pump off.
func (s *Server) handleIngestSample(c *gin.Context) {
	var sample engine.Sample
	if err := c.ShouldBindJSON(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sample payload: " + err.Error()})
		return
	}
	if sample.DeviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_id is required"})
		return
	}
	if sample.Plant == "" || sample.Stage == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plant and stage are required"})
		return
	}
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	// Sample persistence is observability, not correctness; a failed insert
	// must not block the actuator response.
	if err := s.store.InsertSample(ctx, sample); err != nil {
		_ = c.Error(err)
	}

	decision, err := s.decider.Decide(ctx, sample)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":    err.Error(),
			"command":  decision.Command,
			"statuses": decision.Statuses,
		})
		return
	}

	if err := s.store.InsertDecision(ctx, sample.ID, decision); err != nil {
		_ = c.Error(err)
	}
	s.publisher.Publish(ctx, sample.ID, decision)

	c.JSON(http.StatusOK, gin.H{
		"sample_id": sample.ID,
		"command":   decision.Command,
		"statuses":  decision.Statuses,
		"dose":      decision.Dose,
		"motor":     decision.MotorReason,
	})
}

func (s *Server) handleGetLockout(c *gin.Context) {
	deviceID := c.Param("device_id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	until, err := s.store.GetBusy(ctx, deviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	busy := until != nil && until.After(now)
	resp := gin.H{"device_id": deviceID, "busy": busy}
	if busy {
		resp["until"] = until
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleLatestDecision(c *gin.Context) {
	deviceID := c.Param("device_id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	record, err := s.store.LatestDecision(ctx, deviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no decisions for device"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleListProfiles(c *gin.Context) {
	var plant, stage, owner *string
	if v := c.Query("plant"); v != "" {
		plant = &v
	}
	if v := c.Query("stage"); v != "" {
		stage = &v
	}
	if v := c.Query("owner"); v != "" {
		owner = &v
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	profiles, err := s.store.ListProfiles(ctx, plant, stage, owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(profiles), "profiles": profiles})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.decider.Stats())
}
