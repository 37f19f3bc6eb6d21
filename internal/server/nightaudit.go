package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) NightAuditPreview(c *gin.Context) {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	preview, err := s.nightAudit.Preview(c.Request.Context(), date)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, preview)
}

type nightAuditRunRequest struct {
	Date  string `json:"date" binding:"required"`
	Notes string `json:"notes"`
}

func (s *Server) NightAuditRun(c *gin.Context) {
	var req nightAuditRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	run, err := s.nightAudit.Run(c.Request.Context(), date, req.Notes, actor(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondCreated(c, run)
}

func (s *Server) ListNightAuditRuns(c *gin.Context) {
	limit := 30
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			abortBadRequest(c, errInvalidLimit)
			return
		}
		limit = parsed
	}

	runs, err := s.nightAudit.List(c.Request.Context(), limit)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, runs)
}

func (s *Server) GetNightAuditRun(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	run, err := s.nightAudit.Get(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, run)
}

func (s *Server) GetNightAuditDetails(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	details, err := s.nightAudit.Details(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, details)
}
