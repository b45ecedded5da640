package httpapi

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/grounded-labs/grounder/internal/core/domain"
)

// handleHealth reports liveness plus the live session's shape.
func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"session_id":     s.store.SessionID(),
		"document_count": s.store.Count(),
	})
}

// ingestJSONRequest is the JSON body for /api/ingest.
type ingestJSONRequest struct {
	URLs       []string `json:"urls"`
	NewSession bool     `json:"new_session"`
}

// handleIngest accepts either a JSON body with URLs or a multipart
// form with "urls" values and "files" uploads.
func (s *Server) handleIngest(c fiber.Ctx) error {
	req, err := parseIngestRequest(c)
	if err != nil {
		return errorResponse(c, err)
	}

	report, err := s.ingestor.Ingest(c.Context(), *req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(report)
}

func parseIngestRequest(c fiber.Ctx) (*domain.IngestRequest, error) {
	contentType := string(c.Request().Header.ContentType())

	if strings.HasPrefix(contentType, "application/json") {
		var body ingestJSONRequest
		if err := c.Bind().JSON(&body); err != nil {
			return nil, domain.ErrInvalidInput
		}
		return &domain.IngestRequest{URLs: body.URLs, NewSession: body.NewSession}, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	req := &domain.IngestRequest{}
	for _, raw := range form.Value["urls"] {
		for _, u := range strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == ',' }) {
			if u = strings.TrimSpace(u); u != "" {
				req.URLs = append(req.URLs, u)
			}
		}
	}
	if v := form.Value["new_session"]; len(v) > 0 {
		req.NewSession = v[0] == "true" || v[0] == "1"
	}

	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		req.Files = append(req.Files, domain.FileUpload{Name: fh.Filename, Content: content})
	}

	return req, nil
}

// askRequest is the JSON body for /api/ask.
type askRequest struct {
	Question  string `json:"question"`
	NumChunks int    `json:"num_chunks"`
}

// handleAsk answers a question from the session's knowledge base.
func (s *Server) handleAsk(c fiber.Ctx) error {
	var body askRequest
	if err := c.Bind().JSON(&body); err != nil {
		return errorResponse(c, domain.ErrInvalidInput)
	}

	answer, err := s.answerer.Ask(c.Context(), body.Question, body.NumChunks)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(answer)
}

// handleSources lists the session's ingested sources.
func (s *Server) handleSources(c fiber.Ctx) error {
	sources, err := s.store.Sources(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"session_id": s.store.SessionID(),
		"sources":    sources,
	})
}

// handleNewSession discards the live knowledge base and starts fresh.
func (s *Server) handleNewSession(c fiber.Ctx) error {
	id, err := s.store.StartNewSession(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"session_id": id})
}

// handleClearSession empties the current session in place.
func (s *Server) handleClearSession(c fiber.Ctx) error {
	if err := s.store.Clear(c.Context()); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"session_id":     s.store.SessionID(),
		"document_count": s.store.Count(),
	})
}
