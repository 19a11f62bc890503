package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/colsense/colsense/internal/dataset"
	"github.com/colsense/colsense/internal/report"
	"github.com/colsense/colsense/internal/session"
	"github.com/colsense/colsense/internal/types"
)

type classifyRequest struct {
	Filename string                 `json:"filename"`
	Columns  []types.ColumnMetadata `json:"columns"`
	// Select narrows Columns with doublestar patterns.
	Select  []string `json:"select,omitempty"`
	Samples int      `json:"samples,omitempty"`
}

type classifyResponse struct {
	ID         string                       `json:"id"`
	Filename   string                       `json:"filename"`
	Failed     bool                         `json:"failed"`
	Results    []types.ClassificationResult `json:"results"`
	Summary    report.Summary               `json:"summary"`
	Columns    []types.ColumnMetadata       `json:"column_metadata_sent_to_ai"`
	PreviousID string                       `json:"previous_id,omitempty"`
}

type levelInfo struct {
	Level       types.SensitivityLevel `json:"level"`
	Description string                 `json:"description"`
	Examples    []string               `json:"examples"`
	Color       string                 `json:"color"`
}

// handleClassify accepts either a JSON body of column metadata or a
// multipart upload in the "file" field. Classification failures are
// reported in-band with status 200.
func (s *Server) handleClassify(c *gin.Context) {
	var (
		ds  *dataset.Dataset
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		ds, err = s.datasetFromUpload(c)
	} else {
		ds, err = s.datasetFromJSON(c)
	}
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	results := s.cfg.Classifier.Classify(ctx, ds.Columns, s.cfg.APIKey())
	e := s.cfg.Session.Add(ds, results)

	c.JSON(http.StatusOK, classifyResponse{
		ID:         e.ID,
		Filename:   e.Filename,
		Failed:     e.Failed(),
		Results:    e.ClassificationResults,
		Summary:    report.Summarize(e.ClassificationResults),
		Columns:    e.ColumnMetadata,
		PreviousID: e.PreviousID,
	})
}

func (s *Server) datasetFromUpload(c *gin.Context) (*dataset.Dataset, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("multipart upload needs a \"file\" field: %w", err)
	}
	opts := s.cfg.Extract
	if v := strings.TrimSpace(c.PostForm("columns")); v != "" {
		opts.Columns = splitList(v)
	}
	if v := strings.TrimSpace(c.PostForm("samples")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("samples: %w", err)
		}
		opts.MaxSamples = n
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := filepath.Base(fh.Filename)
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return dataset.ReadSchema(f, name, opts)
	}
	return dataset.ReadCSV(f, name, opts)
}

func (s *Server) datasetFromJSON(c *gin.Context) (*dataset.Dataset, error) {
	var req classifyRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	opts := s.cfg.Extract
	if len(req.Select) > 0 {
		opts.Columns = req.Select
	}
	if req.Samples > 0 {
		opts.MaxSamples = req.Samples
	}
	name := req.Filename
	if name == "" {
		name = "api_request.json"
	}
	return dataset.FromColumns(name, req.Columns, opts)
}

func (s *Server) handleLevels(c *gin.Context) {
	var out []levelInfo
	for _, l := range types.ClassifiableLevels() {
		g := s.cfg.Guidance[l]
		out = append(out, levelInfo{
			Level:       l,
			Description: g.Description,
			Examples:    g.Examples,
			Color:       report.LevelColors[l],
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.Session.History())
}

func (s *Server) handleClearHistory(c *gin.Context) {
	s.cfg.Session.Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) entry(c *gin.Context) (session.Entry, bool) {
	e, err := s.cfg.Session.Get(c.Param("id"))
	if errors.Is(err, session.ErrNotFound) {
		abort(c, http.StatusNotFound, err)
		return e, false
	}
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return e, false
	}
	return e, true
}

func (s *Server) handleEntry(c *gin.Context) {
	if e, ok := s.entry(c); ok {
		c.JSON(http.StatusOK, e)
	}
}

func (s *Server) handleExport(c *gin.Context) {
	e, ok := s.entry(c)
	if !ok {
		return
	}
	f, err := report.ParseFormat(c.DefaultQuery("format", "json"))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if f == report.FormatCSV && (e.Table == nil || e.Kind == dataset.KindSchema) {
		abort(c, http.StatusBadRequest, errors.New("annotated csv is only available for CSV inputs"))
		return
	}

	var buf bytes.Buffer
	if err := report.Export(&buf, f, e.Filename, e.Table, e.ColumnMetadata, e.ClassificationResults, e.Timestamp); err != nil {
		s.log.Error("export failed", "id", e.ID, "format", f, "err", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename(e.Filename, e.Timestamp)))
	c.Data(http.StatusOK, f.ContentType(), buf.Bytes())
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
