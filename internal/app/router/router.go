package router

import (
	"github.com/gin-gonic/gin"

	jobhandler "stock_sync/internal/feature/jobs/transport/handler"
	platformhandler "stock_sync/internal/platform/http/handler"
	"stock_sync/internal/platform/triggerauth"
)

// CronPrefix はジョブトリガーのパスの接頭辞です。
const CronPrefix = "/api/cron"

// NewRouter registers the health endpoint and one trigger route per job.
// jobs はジョブ名（例: "sync-prices"）からハンドラーへの対応です。
func NewRouter(health *platformhandler.HealthHandler, jobs map[string]*jobhandler.JobHandler, secret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// 認証不要
	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)

	// 認証必須のルート
	// → Authorization: Bearer <CRON_SECRET または署名付きトークン> が必要になる
	cron := r.Group(CronPrefix)
	cron.Use(triggerauth.Required(secret))
	for name, h := range jobs {
		// スケジューラによって GET/POST のどちらも使われる
		cron.GET("/"+name, h.Trigger)
		cron.POST("/"+name, h.Trigger)
	}

	return r
}
