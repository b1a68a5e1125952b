package controller

import (
	"net/http"

	"takarawalk_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (ctl *HealthController) HealthCheck(c *gin.Context) {
	sqlDB, err := ctl.DB.DB()
	if err != nil {
		util.InternalServerError(c)
		return
	}
	if err := sqlDB.Ping(); err != nil {
		util.Error(c, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	redisStatus := "up"
	if err := ctl.Redis.Ping(c.Request.Context()).Err(); err != nil {
		redisStatus = "down"
	}

	util.Success(c, gin.H{
		"status": "ok",
		"components": gin.H{
			"database": "up",
			"redis":    redisStatus,
		},
	})
}
