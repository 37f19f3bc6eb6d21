package server

import (
	"github.com/gin-gonic/gin"
)

type updateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

func (s *Server) ListSettings(c *gin.Context) {
	settings, err := s.settings.List(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, settings)
}

func (s *Server) UpdateSetting(c *gin.Context) {
	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	setting, err := s.settings.Update(c.Request.Context(), c.Param("key"), req.Value, actor(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, setting)
}
