// Package handler exposes the collaborator-facing REST API: violation
// counts for moderation tooling and historical queries for lag-compensated
// systems that live outside this process.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"moba/server/sync-service/internal/core"
)

type API struct {
	Manager *core.Manager
}

func NewAPI(m *core.Manager) *API {
	return &API{Manager: m}
}

// Register mounts the API routes on the router.
func (a *API) Register(r *gin.Engine) {
	r.GET("/healthz", a.HandleHealth)
	api := r.Group("/api")
	api.GET("/rooms/:id/stats", a.HandleRoomStats)
	api.GET("/rooms/:id/entities/:eid/violations", a.HandleViolations)
	api.GET("/rooms/:id/entities/:eid/history", a.HandleHistory)
}

func (a *API) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *API) HandleRoomStats(c *gin.Context) {
	room := a.Manager.Get(c.Param("id"))
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room_id":  room.ID,
		"tick":     room.Tick(),
		"clock":    room.Clock(),
		"entities": room.EntityCount(),
	})
}

func (a *API) HandleViolations(c *gin.Context) {
	room, id, ok := a.roomEntity(c)
	if !ok {
		return
	}
	rec, err := room.Violations(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entity not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":               rec.Count,
		"last_violation_time": rec.LastViolationTime,
	})
}

func (a *API) HandleHistory(c *gin.Context) {
	room, id, ok := a.roomEntity(c)
	if !ok {
		return
	}
	t, err := strconv.ParseFloat(c.Query("t"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "t is required"})
		return
	}
	snap, err := room.QueryHistoricalPosition(id, t)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entity not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timestamp": snap.Timestamp,
		"position":  [3]float64{snap.Position.X(), snap.Position.Y(), snap.Position.Z()},
		"velocity":  [3]float64{snap.Velocity.X(), snap.Velocity.Y(), snap.Velocity.Z()},
	})
}

func (a *API) roomEntity(c *gin.Context) (*core.Room, core.EntityID, bool) {
	room := a.Manager.Get(c.Param("id"))
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, 0, false
	}
	eid, err := strconv.ParseUint(c.Param("eid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity id"})
		return nil, 0, false
	}
	return room, core.EntityID(eid), true
}
