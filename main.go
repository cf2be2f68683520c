package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"moba/server/sync-service/internal/core"
	"moba/server/sync-service/internal/dao"
	"moba/server/sync-service/internal/handler"
	"moba/server/sync-service/internal/mq"
	"moba/server/sync-service/pkg/config"
)

// moderationReporter fans despawn-time violation tallies out to the redis
// mirror and the moderation queue.
type moderationReporter struct {
	store    *dao.Store
	producer *mq.Producer
}

func (r *moderationReporter) ReportViolations(roomID string, id core.EntityID, ownerUID int64, rec core.ViolationRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.SaveViolationCount(ctx, roomID, uint64(id), rec.Count); err != nil {
		log.Printf("failed to mirror violations for entity %d: %v", id, err)
	}
	r.producer.PublishViolationReport(map[string]interface{}{
		"room_id":             roomID,
		"entity_id":           uint64(id),
		"owner_uid":           ownerUID,
		"count":               rec.Count,
		"last_violation_time": rec.LastViolationTime,
		"reported_at":         time.Now().Unix(),
	})
}

func main() {
	config.InitConfig()
	cfg := config.AppConfig

	store := dao.InitRedis(cfg.Redis)
	producer := mq.InitMQ(cfg.MQ)

	reporter := &moderationReporter{store: store, producer: producer}
	manager := core.NewManager(cfg.Game, reporter)
	ws := core.NewWSHandler(manager, store, cfg.Auth, cfg.Game)
	api := handler.NewAPI(manager)

	r := gin.Default()

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.GET("/ws", ws.Handle)
	api.Register(r)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Sync service running on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
