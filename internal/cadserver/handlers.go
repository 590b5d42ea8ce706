package cadserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/r9s-ai/cadscribe/internal/pipeline"
	"github.com/r9s-ai/cadscribe/internal/requestid"
	"github.com/r9s-ai/cadscribe/internal/trafficdump"
)

// modelRequest is the body of /generate_model/ and /modify_model/. Pointers
// distinguish absent fields from zero values.
type modelRequest struct {
	Prompt       *string  `json:"prompt"`
	Size         *float64 `json:"size"`
	Complexity   *string  `json:"complexity"`
	Modification *string  `json:"modification"`
}

func (r modelRequest) toGenerate() pipeline.GenerateRequest {
	out := pipeline.GenerateRequest{
		Prompt:     *r.Prompt,
		Size:       pipeline.DefaultSize,
		Complexity: pipeline.DefaultComplexity,
	}
	if r.Size != nil {
		out.Size = *r.Size
	}
	if r.Complexity != nil {
		out.Complexity = *r.Complexity
	}
	return out
}

// readJSON decodes the request body into dst and records it in the dump.
// Failures are answered with 422.
func readJSON(c *gin.Context, dst any) bool {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeDetail(c, http.StatusUnprocessableEntity, "could not read request body")
		return false
	}
	trafficdump.AppendOriginRequest(c, body)
	if err := json.Unmarshal(body, dst); err != nil {
		writeDetail(c, http.StatusUnprocessableEntity, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

func bindModelRequest(c *gin.Context) (modelRequest, bool) {
	var req modelRequest
	if !readJSON(c, &req) {
		return req, false
	}
	if req.Prompt == nil {
		writeDetail(c, http.StatusUnprocessableEntity, "field required: prompt")
		return req, false
	}
	return req, true
}

func (s *state) dumpGeneration(c *gin.Context, res pipeline.GenerateResult, err error) {
	trafficdump.AppendGeneration(c, trafficdump.Generation{
		Backend: s.backend,
		Prompt:  res.Prompt,
		Decoded: res.Decoded,
		Shape:   res.Keyword,
		Err:     err,
	})
	if res.Keyword != "" {
		c.Set("cad.shape", res.Keyword)
	}
}

func (s *state) handleGenerate(c *gin.Context) {
	req, ok := bindModelRequest(c)
	if !ok {
		return
	}
	res, err := s.svc.Generate(c.Request.Context(), req.toGenerate())
	s.dumpGeneration(c, res, err)
	if err != nil {
		s.logger.Warn("generate failed", zap.String("request_id", c.GetString(requestid.HeaderKey)), zap.Error(err))
		writeError(c, err)
		return
	}
	c.Set("cad.file", res.Path)
	c.JSON(http.StatusOK, gin.H{"file": res.Path})
}

func (s *state) handleModify(c *gin.Context) {
	req, ok := bindModelRequest(c)
	if !ok {
		return
	}
	mreq := pipeline.ModifyRequest{GenerateRequest: req.toGenerate()}
	if req.Modification != nil {
		mreq.Modification = *req.Modification
	}

	res, err := s.svc.Modify(c.Request.Context(), mreq)
	s.dumpGeneration(c, res.Base, baseErr(res, err))
	if res.Base.Path != "" {
		c.Set("cad.file", res.Base.Path)
		trafficdump.AppendModification(c, trafficdump.Modification{
			Instruction: mreq.Modification,
			Source:      res.Base.Path,
			Result:      res.Modified.Path,
			Applied:     res.Modified.Applied,
			Reason:      res.Modified.Reason,
			Factors:     res.Modified.Factors,
		})
	}
	if err != nil {
		s.logger.Warn("modify failed", zap.String("request_id", c.GetString(requestid.HeaderKey)), zap.Error(err))
		writeError(c, err)
		return
	}
	c.Set("cad.modified_file", res.Path())
	c.Set("cad.applied", res.Modified.Applied)
	c.JSON(http.StatusOK, gin.H{"modifiedFile": res.Path()})
}

// baseErr is the error attributable to the generation step.
func baseErr(res pipeline.ModifyResult, err error) error {
	if res.Base.Path == "" {
		return err
	}
	return nil
}

type uploadRequest struct {
	File string `json:"file"`
}

func (s *state) handleUpload(c *gin.Context) {
	var req uploadRequest
	if !readJSON(c, &req) {
		return
	}
	if !s.ownsArtifact(req.File) {
		writeDetail(c, http.StatusUnprocessableEntity, "file must be an existing artifact")
		return
	}
	c.Set("cad.file", req.File)

	trafficdump.AppendUploadRequest(c, http.MethodPost, s.uploader.URL(), req.File)
	remote, err := s.uploader.Upload(c.Request.Context(), req.File)
	if s.metrics != nil {
		s.metrics.RecordUpload(err == nil)
	}
	if err != nil {
		status, detail := statusFor(err)
		trafficdump.AppendUploadResponse(c, status, []byte(detail))
		s.logger.Warn("upload failed", zap.String("file", req.File), zap.Error(err))
		writeError(c, err)
		return
	}
	raw, _ := json.Marshal(remote.Response())
	trafficdump.AppendUploadResponse(c, http.StatusOK, raw)
	c.Set("cad.remote_id", remote.ID)
	c.JSON(http.StatusOK, gin.H{
		"remoteModelId": remote.ID,
		"response":      remote.Response(),
	})
}

type shapeInfo struct {
	Keyword string `json:"keyword"`
	Kind    string `json:"kind"`
}

func (s *state) handleShapes(c *gin.Context) {
	entries := s.svc.Vocabulary().Entries()
	out := make([]shapeInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, shapeInfo{Keyword: e.Keyword, Kind: string(e.Shape.Kind())})
	}
	c.JSON(http.StatusOK, gin.H{"shapes": out})
}

func normalizeMount(m string) string {
	m = "/" + strings.Trim(strings.TrimSpace(m), "/")
	return m
}
