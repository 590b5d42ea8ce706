package cadserver

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/cadscribe/internal/config"
	"github.com/r9s-ai/cadscribe/internal/version"
)

func NewRouter(cfg *config.Config, st *state, accessLogger *log.Logger, accessColor bool) *gin.Engine {
	r := gin.New()
	r.Use(requestIDMiddleware())
	if cfg.AccessLogEnabled() {
		r.Use(requestLoggerWithColor(accessLogger, accessColor))
	}
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.CORS.AllowOrigins))
	if st.metrics != nil {
		r.Use(metricsMiddleware(st.metrics))
	}
	if cfg.TrafficDump.Enabled {
		r.Use(trafficDumpMiddleware(cfg))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":       true,
			"uptime_s": time.Now().Unix() - st.startedAt,
		})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	})
	r.GET("/shapes", st.handleShapes)
	if st.metrics != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(st.metrics.Handler()))
	}

	r.POST("/generate_model/", st.handleGenerate)
	r.POST("/modify_model/", st.handleModify)
	if st.uploader != nil {
		r.POST("/upload_model/", st.handleUpload)
	}

	r.Static(normalizeMount(cfg.Artifacts.Mount), st.store.Dir())
	return r
}
