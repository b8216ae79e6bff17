package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ginjaninja78/sku-mapper/internal/chart"
	"github.com/ginjaninja78/sku-mapper/internal/converter"
	"github.com/ginjaninja78/sku-mapper/internal/llm"
	"github.com/ginjaninja78/sku-mapper/internal/session"
	"github.com/ginjaninja78/sku-mapper/internal/skumap"
	"github.com/ginjaninja78/sku-mapper/internal/writer"
)

// mapResponse is the body of a successful POST /api/map.
type mapResponse struct {
	Token    string                    `json:"token"`
	Columns  []string                  `json:"columns"`
	Preview  [][]string                `json:"preview"`
	RowCount int                       `json:"rowCount"`
	Warnings []string                  `json:"warnings"`
	Outcomes []skumap.Outcome          `json:"outcomes"`
	Chart    *chart.Chart              `json:"chart"`
	Stats    converter.ProcessingStats `json:"stats"`
}

type askRequest struct {
	Token    string `json:"token"`
	Question string `json:"question"`
	APIKey   string `json:"apiKey"`
}

// Index serves the upload page.
// GET /
func (s *Server) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"FileName":    writer.FileName(s.cfg.Output.BaseName, writer.CSV),
		"PreviewRows": s.cfg.Output.PreviewRows,
		"Format":      s.cfg.Output.Format,
	})
}

// Map runs the pipeline on the uploaded files and keeps the result for the
// follow-up actions.
// POST /api/map (multipart: mapping, sales...)
func (s *Server) Map(c *gin.Context) {
	if limit := s.cfg.Server.MaxUploadMB; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit<<20)
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid upload: %v", err)})
		return
	}

	mappingFiles := form.File["mapping"]
	if len(mappingFiles) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a mapping file is required"})
		return
	}
	var sales []converter.Input
	for _, field := range []string{"sales", "sales[]"} {
		for _, fh := range form.File[field] {
			sales = append(sales, uploadInput(fh))
		}
	}

	res, err := s.converter.Run(uploadInput(mappingFiles[0]), sales)
	if err != nil {
		log.Warn().Err(err).Msg("Mapping run failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token := s.sessions.Put(res)

	preview := [][]string{}
	if n := s.cfg.Output.PreviewRows; n > 0 {
		preview = res.Combined.Head(n).Records()[1:]
	}
	warnings := res.Warnings()
	if warnings == nil {
		warnings = []string{}
	}

	c.JSON(http.StatusOK, mapResponse{
		Token:    token,
		Columns:  res.Combined.Headers,
		Preview:  preview,
		RowCount: res.Combined.Len(),
		Warnings: warnings,
		Outcomes: res.Outcomes,
		Chart:    res.Chart,
		Stats:    res.Stats,
	})
}

// Download serves the combined table as an attachment.
// GET /api/download/:token?format=csv|xlsx|xml
func (s *Server) Download(c *gin.Context) {
	format, err := writer.ParseFormat(c.DefaultQuery("format", s.cfg.Output.Format))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, ok := s.lookup(c)
	if !ok {
		return
	}

	comma, _ := s.cfg.CSV.Comma()
	data, err := writer.Encode(res.Combined, format, writer.Options{Comma: comma})
	if err != nil {
		log.Error().Err(err).Str("format", string(format)).Msg("Failed to serialize combined table")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to serialize the combined table"})
		return
	}

	filename := writer.FileName(s.cfg.Output.BaseName, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, format.ContentType(), data)
}

// Chart serves the Quantity-by-MSKU bar chart as SVG.
// GET /api/chart/:token
func (s *Server) Chart(c *gin.Context) {
	res, ok := s.lookup(c)
	if !ok {
		return
	}
	if res.Chart == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "the combined table has no Quantity column"})
		return
	}

	var buf bytes.Buffer
	if err := res.Chart.WriteSVG(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render chart"})
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

// Ask forwards a question about a combined table to the query delegate.
// POST /api/ask {token, question, apiKey}
func (s *Server) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	switch {
	case req.Token == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	case strings.TrimSpace(req.Question) == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": llm.ErrMissingQuestion.Error()})
		return
	case strings.TrimSpace(req.APIKey) == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": llm.ErrMissingCredential.Error()})
		return
	}

	res, ok := s.result(c, req.Token)
	if !ok {
		return
	}

	answer, err := s.answerer.Answer(c.Request.Context(), res.Combined, req.Question, req.APIKey)
	switch {
	case errors.Is(err, llm.ErrMissingQuestion), errors.Is(err, llm.ErrMissingCredential):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		log.Warn().Err(err).Msg("Query delegate failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// Discard drops a combined table before its session expires. Unknown
// tokens are accepted so the call can be repeated.
// DELETE /api/session/:token
func (s *Server) Discard(c *gin.Context) {
	s.sessions.Delete(c.Param("token"))
	c.Status(http.StatusNoContent)
}

// lookup resolves the :token path parameter.
func (s *Server) lookup(c *gin.Context) (*converter.Result, bool) {
	return s.result(c, c.Param("token"))
}

// result fetches a stored run, writing a 404 when the token is unknown or
// expired and a 500 for any other store failure.
func (s *Server) result(c *gin.Context, token string) (*converter.Result, bool) {
	res, err := s.sessions.Get(token)
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	case err != nil:
		log.Error().Err(err).Msg("Failed to load session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load the combined table"})
		return nil, false
	}
	return res, true
}

func uploadInput(fh *multipart.FileHeader) converter.Input {
	return converter.Input{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
