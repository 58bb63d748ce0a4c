package handler

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"paper-rag/internal/models"
	"paper-rag/internal/parser"
	"paper-rag/internal/session"
	"paper-rag/internal/transport/http/response"
)

type SessionHandler struct {
	sessions          *session.Manager
	allowedExtensions []string
	maxUploadSize     int64
	defaultTopK       int
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k"`
}

type SourceView struct {
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

type AskResponse struct {
	Question      string       `json:"question"`
	Answer        string       `json:"answer"`
	Sources       []SourceView `json:"sources"`
	ContextChunks int          `json:"context_chunks"`
	ElapsedMS     int64        `json:"elapsed_ms"`
}

func NewSessionHandler(sessions *session.Manager, allowedExtensions []string, maxUploadSize int64, defaultTopK int) *SessionHandler {
	exts := make([]string, len(allowedExtensions))
	for i, ext := range allowedExtensions {
		exts[i] = strings.ToLower(ext)
	}
	return &SessionHandler{
		sessions:          sessions,
		allowedExtensions: exts,
		maxUploadSize:     maxUploadSize,
		defaultTopK:       defaultTopK,
	}
}

func (h *SessionHandler) Create(c *gin.Context) {
	s, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"session_id": s.ID})
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.sessions.Close(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted_session_id": id})
}

// Upload parses every file in the multipart "files" field and rebuilds the
// session index from all of them.
func (h *SessionHandler) Upload(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, fmt.Errorf("%w: invalid multipart form", models.ErrInvalidArgument))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		writeError(c, fmt.Errorf("%w: missing files", models.ErrInvalidArgument))
		return
	}

	var docs []models.Document
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !slices.Contains(h.allowedExtensions, ext) {
			writeError(c, fmt.Errorf("%w: %s: file type %q is not allowed", models.ErrInvalidArgument, file.Filename, ext))
			return
		}
		if file.Size > h.maxUploadSize {
			writeError(c, fmt.Errorf("%w: %s: file too large (max %d bytes)", models.ErrInvalidArgument, file.Filename, h.maxUploadSize))
			return
		}

		f, err := file.Open()
		if err != nil {
			writeError(c, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(c, err)
			return
		}

		parsed, err := parser.Parse(filepath.Base(file.Filename), data)
		if err != nil {
			writeError(c, fmt.Errorf("%w: %w", models.ErrInvalidArgument, err))
			return
		}
		if len(parsed) == 0 {
			writeError(c, fmt.Errorf("%w: %s contains no extractable text", models.ErrInvalidArgument, file.Filename))
			return
		}
		docs = append(docs, parsed...)
	}

	result, err := s.Ingest(c.Request.Context(), docs)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *SessionHandler) Ask(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: invalid request payload", models.ErrInvalidArgument))
		return
	}
	if req.TopK == 0 {
		req.TopK = h.defaultTopK
	}

	out, err := s.Ask(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		writeError(c, err)
		return
	}

	sources := make([]SourceView, 0, out.Answer.Sources.Len())
	for _, sc := range out.Answer.Sources.Chunks {
		sources = append(sources, SourceView{
			Source: sc.Chunk.Source,
			Page:   sc.Chunk.Page,
			Text:   sc.Chunk.Text,
			Score:  sc.Score,
		})
	}
	response.OK(c, AskResponse{
		Question:      out.Answer.Question,
		Answer:        out.Answer.Text,
		Sources:       sources,
		ContextChunks: out.Answer.ContextChunks,
		ElapsedMS:     out.Elapsed.Milliseconds(),
	})
}

func (h *SessionHandler) History(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	entries, err := s.History(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, entries)
}

func (h *SessionHandler) ClearHistory(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.ClearHistory(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"cleared_session_id": s.ID})
}
