package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/r9s-ai/cadscribe/internal/trafficdump"
)

type DumpSummary struct {
	Path     string
	FileName string
	ModTime  time.Time
	Size     int64

	Time      time.Time
	RequestID string
	Method    string
	URLPath   string
	ClientIP  string

	Prompt       string
	Modification string
	Backend      string
	Shape        string
	GenError     string
	Applied      *bool

	Status       int
	UploadStatus int
	HasTruncated bool
}

type DumpListOptions struct {
	Dir   string
	Limit int
}

func ListDumpSummaries(opts DumpListOptions) ([]DumpSummary, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("dump dir is empty")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 200
	}
	if limit > 2000 {
		limit = 2000
	}

	type fileItem struct {
		path string
		info fs.FileInfo
	}
	var items []fileItem
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".log") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		items = append(items, fileItem{path: path, info: info})
		return nil
	}); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		mi, mj := items[i].info.ModTime(), items[j].info.ModTime()
		if !mi.Equal(mj) {
			return mi.After(mj)
		}
		return items[i].info.Name() > items[j].info.Name()
	})
	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]DumpSummary, 0, len(items))
	for _, it := range items {
		sum, err := ParseDumpSummary(it.path, it.info)
		if err != nil {
			out = append(out, DumpSummary{
				Path:     it.path,
				FileName: it.info.Name(),
				ModTime:  it.info.ModTime(),
				Size:     it.info.Size(),
			})
			continue
		}
		out = append(out, sum)
	}
	return out, nil
}

func ParseDumpSummary(path string, info fs.FileInfo) (DumpSummary, error) {
	sum := DumpSummary{
		Path:     path,
		FileName: filepath.Base(path),
	}
	if info != nil {
		sum.ModTime = info.ModTime()
		sum.Size = info.Size()
	}

	f, err := os.Open(path) // #nosec G304 -- admin tool reads user-provided dump dir.
	if err != nil {
		return DumpSummary{}, err
	}
	defer func() { _ = f.Close() }()

	if err := parseDumpSummaryFromReader(&sum, f); err != nil {
		return DumpSummary{}, err
	}
	if sum.Time.IsZero() {
		sum.Time = sum.ModTime
	}
	return sum, nil
}

func isSectionLine(t string) bool {
	return strings.HasPrefix(t, "=== ") && strings.HasSuffix(t, " ===")
}

func parseDumpSummaryFromReader(sum *DumpSummary, r io.Reader) error {
	if sum == nil {
		return errors.New("nil summary")
	}

	br := bufio.NewReader(r)
	section := ""
	var originBuf strings.Builder
	originBytes := 0
	originDone := false
	// Only the first generation block counts; key=value lines end at the
	// prompt sub-block.
	genHeader := false

	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		trimmed := strings.TrimRight(line, "\r\n")
		t := strings.TrimSpace(trimmed)

		if isSectionLine(t) {
			if section == trafficdump.SectionOriginRequest && !originDone {
				parseDumpOrigin(sum, originBuf.String())
				originDone = true
			}
			section = t
			genHeader = section == trafficdump.SectionGeneration && sum.Backend == ""
		} else {
			switch section {
			case trafficdump.SectionMeta:
				parseDumpMetaLine(sum, trimmed)
			case trafficdump.SectionOriginRequest:
				if originDone {
					break
				}
				if t == "" {
					parseDumpOrigin(sum, originBuf.String())
					originDone = true
					break
				}
				if originBytes < 256*1024 {
					originBuf.WriteString(trimmed)
					originBuf.WriteByte('\n')
					originBytes += len(trimmed) + 1
				}
			case trafficdump.SectionGeneration:
				if !genHeader {
					break
				}
				switch {
				case t == "prompt:":
					genHeader = false
				case strings.HasPrefix(t, "backend="):
					sum.Backend = strings.TrimPrefix(t, "backend=")
				case strings.HasPrefix(t, "shape="):
					sum.Shape = strings.TrimPrefix(t, "shape=")
				case strings.HasPrefix(t, "error="):
					sum.GenError = strings.TrimPrefix(t, "error=")
				}
			case trafficdump.SectionModification:
				if v, ok := strings.CutPrefix(t, "applied="); ok {
					if b, xerr := strconv.ParseBool(v); xerr == nil {
						sum.Applied = &b
					}
				}
			case trafficdump.SectionUploadResponse:
				if sum.UploadStatus == 0 {
					sum.UploadStatus = parseStatusLine(t)
				}
			case trafficdump.SectionResponse:
				if sum.Status == 0 {
					sum.Status = parseStatusLine(t)
				}
			}
			if strings.EqualFold(t, "[truncated]") {
				sum.HasTruncated = true
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}
	}

	if section == trafficdump.SectionOriginRequest && !originDone && originBuf.Len() > 0 {
		parseDumpOrigin(sum, originBuf.String())
	}
	return nil
}

func parseStatusLine(t string) int {
	v, ok := strings.CutPrefix(strings.ToLower(t), "status=")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func parseDumpMetaLine(sum *DumpSummary, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(line, "  ") {
		return
	}
	k, v, ok := strings.Cut(trimmed, "=")
	if !ok {
		return
	}
	v = strings.TrimSpace(v)
	switch k {
	case "time":
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			sum.Time = ts
		}
	case "request_id":
		sum.RequestID = v
	case "method":
		sum.Method = v
	case "path":
		sum.URLPath = v
	case "client_ip":
		sum.ClientIP = v
	}
}

func parseDumpOrigin(sum *DumpSummary, raw string) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return
	}
	var v struct {
		Prompt       string `json:"prompt"`
		Modification string `json:"modification"`
		File         string `json:"file"`
	}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return
	}
	sum.Prompt = strings.TrimSpace(v.Prompt)
	sum.Modification = strings.TrimSpace(v.Modification)
	if sum.Prompt == "" && v.File != "" {
		sum.Prompt = "upload " + filepath.Base(v.File)
	}
}

// DumpUniqueOptions returns the sorted distinct shapes, paths and statuses.
func DumpUniqueOptions(dumps []DumpSummary) (shapes []string, paths []string, statuses []int) {
	shapeSet := map[string]struct{}{}
	pathSet := map[string]struct{}{}
	statusSet := map[int]struct{}{}
	for _, d := range dumps {
		if v := strings.TrimSpace(d.Shape); v != "" {
			shapeSet[v] = struct{}{}
		}
		if v := strings.TrimSpace(d.URLPath); v != "" {
			pathSet[v] = struct{}{}
		}
		if d.Status != 0 {
			statusSet[d.Status] = struct{}{}
		}
	}
	for v := range shapeSet {
		shapes = append(shapes, v)
	}
	sort.Strings(shapes)
	for v := range pathSet {
		paths = append(paths, v)
	}
	sort.Strings(paths)
	for v := range statusSet {
		statuses = append(statuses, v)
	}
	sort.Ints(statuses)
	return shapes, paths, statuses
}

func dash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}

// DisplayTime is the dump's recorded time, falling back to its mtime.
func (d DumpSummary) DisplayTime() string {
	ts := d.Time
	if ts.IsZero() {
		ts = d.ModTime
	}
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02 15:04:05")
}

// DisplayRequestID falls back to the file name without extension.
func (d DumpSummary) DisplayRequestID() string {
	if rid := strings.TrimSpace(d.RequestID); rid != "" {
		return rid
	}
	return strings.TrimSuffix(d.FileName, filepath.Ext(d.FileName))
}

func (d DumpSummary) DisplayStatus() string {
	if d.Status == 0 {
		return "-"
	}
	return strconv.Itoa(d.Status)
}

func FormatDumpRow(d DumpSummary) string {
	applied := "-"
	if d.Applied != nil {
		applied = strconv.FormatBool(*d.Applied)
	}
	return fmt.Sprintf("%s status=%s shape=%s applied=%s path=%s rid=%s",
		d.DisplayTime(), d.DisplayStatus(), dash(d.Shape), applied, dash(d.URLPath), d.DisplayRequestID())
}
