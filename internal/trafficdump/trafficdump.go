package trafficdump

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/cadscribe/internal/requestid"
)

const ctxKeyRecorder = "cad.traffic_dump_recorder"

// Section titles. The admin store parses dumps by these markers.
const (
	SectionMeta           = "=== META ==="
	SectionOriginRequest  = "=== ORIGIN REQUEST ==="
	SectionGeneration     = "=== GENERATION ==="
	SectionModification   = "=== MODIFICATION ==="
	SectionUploadRequest  = "=== UPLOAD REQUEST ==="
	SectionUploadResponse = "=== UPLOAD RESPONSE ==="
	SectionResponse       = "=== RESPONSE ==="
)

type Config struct {
	Enabled     bool
	Dir         string
	FilePath    string
	MaxBytes    int
	MaskSecrets bool
}

// Recorder appends sections to one dump file. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	f        *os.File
	path     string
	maxBytes int
	mask     bool
	closed   bool
}

// RequestID returns the id stored on c, reusing a valid incoming header or
// generating a new one.
func RequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if v := strings.TrimSpace(c.GetString(requestid.HeaderKey)); v != "" {
		return v
	}
	id := strings.TrimSpace(c.GetHeader(requestid.HeaderKey))
	if !requestid.Valid(id) {
		id = requestid.Gen()
	}
	c.Set(requestid.HeaderKey, id)
	c.Header(requestid.HeaderKey, id)
	return id
}

// Start opens the dump file for this request and writes the META section.
//
// Template variables for cfg.FilePath:
//   - {{.request_id}}
func Start(c *gin.Context, cfg Config) (*Recorder, error) {
	if c == nil {
		return nil, errors.New("context is nil")
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("traffic_dump.dir is empty")
	}
	if strings.TrimSpace(cfg.FilePath) == "" {
		return nil, errors.New("traffic_dump.file_path is empty")
	}
	if cfg.MaxBytes < 0 {
		return nil, errors.New("traffic_dump.max_bytes must be non-negative")
	}

	rid := RequestID(c)
	tmpl, err := template.New("path").Parse(cfg.FilePath)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{"request_id": rid}); err != nil {
		return nil, err
	}

	dir := strings.TrimSpace(cfg.Dir)
	path := filepath.Join(dir, buf.String())
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	// #nosec G304 -- path is derived from configured dump dir and template.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}

	r := &Recorder{
		f:        f,
		path:     path,
		maxBytes: cfg.MaxBytes,
		mask:     cfg.MaskSecrets,
	}
	c.Set(ctxKeyRecorder, r)

	r.writeLine(SectionMeta)
	r.writeLine(fmt.Sprintf("time=%s", time.Now().Format(time.RFC3339)))
	r.writeLine(fmt.Sprintf("request_id=%s", rid))
	r.writeLine(fmt.Sprintf("method=%s", c.Request.Method))
	r.writeLine(fmt.Sprintf("path=%s", maskURLIfNeeded(c.Request.URL.String(), r.mask)))
	r.writeLine(fmt.Sprintf("client_ip=%s", c.ClientIP()))
	r.writeLine("headers:")
	for k, vals := range c.Request.Header {
		for _, v := range vals {
			r.writeLine(fmt.Sprintf("  %s: %s", k, maskIfNeeded(k, v, r.mask)))
		}
	}
	r.writeLine("")

	return r, nil
}

func FromContext(c *gin.Context) *Recorder {
	if c == nil {
		return nil
	}
	v, ok := c.Get(ctxKeyRecorder)
	if !ok {
		return nil
	}
	rec, _ := v.(*Recorder)
	return rec
}

func (r *Recorder) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	_ = r.f.Close()
}

func (r *Recorder) Closed() bool {
	if r == nil {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Recorder) MaxBytes() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxBytes
}

func (r *Recorder) writeLine(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	_, _ = r.f.WriteString(s)
	_, _ = r.f.WriteString("\n")
}

func (r *Recorder) writeBlock(title string, content []byte) {
	content, truncated := LimitBytes(content, r.MaxBytes())
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if title != "" {
		_, _ = r.f.WriteString(title)
		_, _ = r.f.WriteString("\n")
	}
	_, _ = r.f.Write(content)
	if len(content) == 0 || content[len(content)-1] != '\n' {
		_, _ = r.f.WriteString("\n")
	}
	if truncated {
		_, _ = r.f.WriteString("[truncated]\n")
	}
	_, _ = r.f.WriteString("\n")
}

func maskIfNeeded(key, val string, on bool) string {
	if !on {
		return val
	}
	lk := strings.ToLower(key)
	if strings.Contains(lk, "authorization") ||
		strings.Contains(lk, "api-key") ||
		lk == "x-api-key" ||
		lk == "cookie" ||
		strings.Contains(lk, "token") {
		return "[REDACTED]"
	}
	return val
}

func maskURLIfNeeded(rawURL string, on bool) string {
	if !on {
		return rawURL
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if len(q) == 0 {
		return rawURL
	}

	shouldRedactKey := func(k string) bool {
		lk := strings.ToLower(strings.TrimSpace(k))
		if lk == "" {
			return false
		}
		if lk == "key" || lk == "api_key" || lk == "apikey" {
			return true
		}
		return strings.Contains(lk, "token") || strings.Contains(lk, "secret")
	}

	changed := false
	for k := range q {
		if !shouldRedactKey(k) {
			continue
		}
		q.Set(k, "[REDACTED]")
		changed = true
	}
	if !changed {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func AppendOriginRequest(c *gin.Context, body []byte) {
	if r := FromContext(c); r != nil {
		r.writeBlock(SectionOriginRequest, body)
	}
}

// Generation describes one pass through generator and resolver.
type Generation struct {
	Backend string
	Prompt  string
	Decoded string
	Shape   string
	Err     error
}

func AppendGeneration(c *gin.Context, g Generation) {
	r := FromContext(c)
	if r == nil {
		return
	}
	r.writeLine(SectionGeneration)
	r.writeLine(fmt.Sprintf("backend=%s", g.Backend))
	r.writeLine(fmt.Sprintf("shape=%s", g.Shape))
	if g.Err != nil {
		r.writeLine(fmt.Sprintf("error=%s", g.Err.Error()))
	}
	r.writeBlock("prompt:", []byte(g.Prompt))
	r.writeBlock("decoded:", []byte(g.Decoded))
}

// Modification describes one modification engine run.
type Modification struct {
	Instruction string
	Source      string
	Result      string
	Applied     bool
	Reason      string
	Factors     [3]float64
}

func AppendModification(c *gin.Context, m Modification) {
	r := FromContext(c)
	if r == nil {
		return
	}
	r.writeLine(SectionModification)
	r.writeLine(fmt.Sprintf("instruction=%s", m.Instruction))
	r.writeLine(fmt.Sprintf("source=%s", m.Source))
	r.writeLine(fmt.Sprintf("result=%s", m.Result))
	r.writeLine(fmt.Sprintf("applied=%t", m.Applied))
	if m.Reason != "" {
		r.writeLine(fmt.Sprintf("reason=%s", m.Reason))
	}
	if m.Applied {
		r.writeLine(fmt.Sprintf("factors=%g,%g,%g", m.Factors[0], m.Factors[1], m.Factors[2]))
	}
	r.writeLine("")
}

func AppendUploadRequest(c *gin.Context, method, rawURL, filePath string) {
	if r := FromContext(c); r != nil {
		r.writeLine(SectionUploadRequest)
		r.writeLine(fmt.Sprintf("%s %s", method, maskURLIfNeeded(rawURL, r.mask)))
		r.writeLine(fmt.Sprintf("file_path=%s", filePath))
		r.writeLine("")
	}
}

func AppendUploadResponse(c *gin.Context, status int, body []byte) {
	if r := FromContext(c); r != nil {
		r.writeLine(SectionUploadResponse)
		r.writeLine(fmt.Sprintf("status=%d", status))
		r.writeBlock("", body)
	}
}

func AppendResponse(c *gin.Context, statusCode int, body []byte) {
	if r := FromContext(c); r != nil {
		r.writeLine(SectionResponse)
		r.writeLine(fmt.Sprintf("status=%d", statusCode))
		r.writeBlock("", body)
	}
}

// LimitBytes caps b at max bytes. max <= 0 means no limit.
func LimitBytes(b []byte, max int) (out []byte, truncated bool) {
	if max <= 0 || len(b) <= max {
		return b, false
	}
	return b[:max], true
}
