package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/japaniel/lector/pkg/article"
	"github.com/japaniel/lector/pkg/logger"
	"github.com/japaniel/lector/pkg/lookup"
	"github.com/japaniel/lector/pkg/mindmap"
)

type ArticleService interface {
	Fetch(ctx context.Context, url string) (*article.Result, error)
}

type LookupService interface {
	LookupBatch(ctx context.Context, reqs []lookup.Request) []lookup.Result
}

type MindmapService interface {
	GetMindmap(ctx context.Context, rawArticleID, language string) (*mindmap.Mindmap, error)
}

type Handler struct {
	articles ArticleService
	lookups  LookupService
	mindmaps MindmapService
	log      *logger.Logger
}

func NewHandler(articles ArticleService, lookups LookupService, mindmaps MindmapService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{articles: articles, lookups: lookups, mindmaps: mindmaps, log: log}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type fetchArticleRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// POST /article/fetch
func (h *Handler) FetchArticle(c *gin.Context) {
	var req fetchArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.articles.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		h.log.Warn("fetch article failed", "url", req.URL, "error", err)
		respondAppError(c, err, "fetch_article_failed")
		return
	}
	RespondOK(c, res)
}

// POST /word/lookup
func (h *Handler) LookupWords(c *gin.Context) {
	var reqs []lookup.Request
	if err := c.ShouldBindJSON(&reqs); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	RespondOK(c, h.lookups.LookupBatch(c.Request.Context(), reqs))
}

type mindmapRequest struct {
	ArticleID string `json:"articleId" binding:"required"`
	Language  string `json:"language"`
}

type mindmapResponse struct {
	ArticleID string       `json:"articleId"`
	Language  string       `json:"language"`
	Data      mindmap.Node `json:"data"`
}

// POST /mindmap
func (h *Handler) GetMindmap(c *gin.Context) {
	var req mindmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	m, err := h.mindmaps.GetMindmap(c.Request.Context(), req.ArticleID, req.Language)
	if err != nil {
		h.log.Warn("mindmap failed", "article_id", req.ArticleID, "error", err)
		respondAppError(c, err, "mindmap_failed")
		return
	}
	if m == nil {
		respondAppError(c, errors.New("no mindmap"), "mindmap_failed")
		return
	}
	RespondOK(c, mindmapResponse{ArticleID: req.ArticleID, Language: m.Language, Data: m.Root})
}
