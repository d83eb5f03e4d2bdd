package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwave/teamsync-backend/internal/anchor"
	"github.com/inkwave/teamsync-backend/internal/annotations"
	"github.com/inkwave/teamsync-backend/internal/services"
)

type AnnotationHandler struct {
	service services.AnnotationService
	store   annotations.Store
}

func NewAnnotationHandler(service services.AnnotationService, store annotations.Store) *AnnotationHandler {
	return &AnnotationHandler{service: service, store: store}
}

type createAnnotationRequest struct {
	FilePath string       `json:"filePath" binding:"required"`
	DocText  string       `json:"docText"`
	Range    anchor.Range `json:"range"`
	Content  string       `json:"content" binding:"required"`
	Mentions []string     `json:"mentions"`
}

func (ah *AnnotationHandler) Create(c *gin.Context) {
	var req createAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	ann, err := ah.service.CreateFromSelection(c.Request.Context(), req.FilePath, req.DocText, req.Range, req.Content, req.Mentions)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"annotation": ann})
}

type replyRequest struct {
	Content string `json:"content" binding:"required"`
}

func (ah *AnnotationHandler) Reply(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	reply, err := ah.service.Reply(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"annotation": reply})
}

type updateAnnotationRequest struct {
	Content  *string  `json:"content"`
	Mentions []string `json:"mentions"`
}

func (ah *AnnotationHandler) Update(c *gin.Context) {
	var req updateAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	ok, err := ah.store.Update(c.Request.Context(), c.Param("id"), annotations.UpdateFields{
		Content:  req.Content,
		Mentions: req.Mentions,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	ann, err := ah.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"annotation": ann})
}

func (ah *AnnotationHandler) Resolve(c *gin.Context) {
	ok, err := ah.service.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// Query lists raw annotation records by file or mention.
func (ah *AnnotationHandler) Query(c *gin.Context) {
	ctx := c.Request.Context()
	if file := c.Query("file"); file != "" {
		anns, err := ah.store.GetByFile(ctx, file)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"annotations": anns})
		return
	}
	if mention := c.Query("mention"); mention != "" {
		anns, err := ah.store.GetByMention(ctx, mention)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"annotations": anns})
		return
	}
	anns, err := ah.store.All(ctx)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"annotations": anns})
}

type refreshRequest struct {
	FilePath string `json:"filePath" binding:"required"`
	DocText  string `json:"docText"`
}

// Refresh returns render-ready annotations relocated against the supplied
// document text.
func (ah *AnnotationHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	out, err := ah.service.RefreshForFile(c.Request.Context(), req.FilePath, req.DocText)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"annotations": out})
}
