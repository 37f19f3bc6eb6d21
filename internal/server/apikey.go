package server

import (
	"time"

	"github.com/gin-gonic/gin"
)

type createApiKeyRequest struct {
	Name      string     `json:"name" binding:"required"`
	Role      string     `json:"role" binding:"required,oneof=admin manager auditor front_desk"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (s *Server) CreateApiKey(c *gin.Context) {
	var req createApiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	created, err := s.apiKeys.Create(c.Request.Context(), req.Name, req.Role, req.ExpiresAt)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondCreated(c, created)
}

func (s *Server) ListApiKeys(c *gin.Context) {
	keys, err := s.apiKeys.List(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, keys)
}

func (s *Server) RevokeApiKey(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	if err := s.apiKeys.Revoke(c.Request.Context(), id); err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, gin.H{"revoked": true})
}
