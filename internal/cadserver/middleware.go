package cadserver

import (
	"bytes"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/cadscribe/internal/config"
	"github.com/r9s-ai/cadscribe/internal/logx"
	"github.com/r9s-ai/cadscribe/internal/metrics"
	"github.com/r9s-ai/cadscribe/internal/requestid"
	"github.com/r9s-ai/cadscribe/internal/trafficdump"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestid.HeaderKey))
		if !requestid.Valid(id) {
			id = requestid.Gen()
		}
		c.Header(requestid.HeaderKey, id)
		c.Set(requestid.HeaderKey, id)
		c.Next()
	}
}

// accessLogKeys maps context keys set by handlers to access log fields.
var accessLogKeys = []struct{ ctx, field string }{
	{"cad.shape", "shape"},
	{"cad.applied", "applied"},
	{"cad.remote_id", "remote_id"},
	{"cad.error", "error"},
	{"cad.file", "file"},
	{"cad.modified_file", "modified_file"},
}

func requestLoggerWithColor(l *log.Logger, color bool) gin.HandlerFunc {
	if l == nil {
		l = log.New(os.Stdout, "", log.LstdFlags)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)

		fields := map[string]any{}
		if v := c.GetString(requestid.HeaderKey); v != "" {
			fields["request_id"] = v
		}
		for _, k := range accessLogKeys {
			if v, ok := c.Get(k.ctx); ok {
				fields[k.field] = v
			}
		}
		l.Println(logx.FormatRequestLineWithColor(time.Now(), status, latency, c.ClientIP(), c.Request.Method, c.Request.URL.Path, fields, color))
	}
}

func metricsMiddleware(mc *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		mc.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// corsMiddleware allows the configured origins. "*" allows every origin.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := false
	originSet := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		originSet[o] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			_, ok := originSet[origin]
			switch {
			case allowAll:
				c.Header("Access-Control-Allow-Origin", "*")
			case ok:
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			if allowAll || ok {
				c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
				c.Header("Access-Control-Expose-Headers", requestid.HeaderKey)
				c.Header("Access-Control-Max-Age", "86400")
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// captureWriter tees the response body for the traffic dump.
type captureWriter struct {
	gin.ResponseWriter
	buf   bytes.Buffer
	limit int
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.capture(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.capture([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

func (w *captureWriter) capture(b []byte) {
	if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
		b = b[:max(0, w.limit-w.buf.Len())]
	}
	w.buf.Write(b)
}

// trafficDumpMiddleware records API calls only; static artifact downloads
// and probes are skipped.
func trafficDumpMiddleware(cfg *config.Config) gin.HandlerFunc {
	tdcfg := trafficdump.Config{
		Enabled:     cfg.TrafficDump.Enabled,
		Dir:         cfg.TrafficDump.Dir,
		FilePath:    cfg.TrafficDump.FilePath,
		MaxBytes:    cfg.TrafficDump.MaxBytes,
		MaskSecrets: cfg.MaskSecrets(),
	}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		rec, err := trafficdump.Start(c, tdcfg)
		if err != nil {
			c.Next()
			return
		}
		defer rec.Close()
		cw := &captureWriter{ResponseWriter: c.Writer, limit: tdcfg.MaxBytes}
		c.Writer = cw
		c.Next()
		trafficdump.AppendResponse(c, c.Writer.Status(), cw.buf.Bytes())
	}
}
