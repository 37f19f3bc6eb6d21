package server

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (s *Server) CheckoutPreview(c *gin.Context) {
	id, err := pathID(c, "booking_id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	rec, err := s.checkout.Preview(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, rec)
}

func (s *Server) CheckoutAdvance(c *gin.Context) {
	id, err := pathID(c, "booking_id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	rec, err := s.checkout.Advance(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, rec)
}

type lateFeeRequest struct {
	Penalty decimal.Decimal `json:"penalty"`
	Notes   string          `json:"notes"`
}

func (s *Server) CheckoutLateFee(c *gin.Context) {
	id, err := pathID(c, "booking_id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	var req lateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	rec, err := s.checkout.SetLateFee(c.Request.Context(), id, req.Penalty, req.Notes)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, rec)
}

func (s *Server) CheckoutBack(c *gin.Context) {
	id, err := pathID(c, "booking_id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	rec, err := s.checkout.Back(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, rec)
}

func (s *Server) CheckoutComplete(c *gin.Context) {
	id, err := pathID(c, "booking_id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	rec, err := s.checkout.Complete(c.Request.Context(), id, actor(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, rec)
}

func (s *Server) CheckoutAbandon(c *gin.Context) {
	id, err := pathID(c, "booking_id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	if err := s.checkout.Abandon(c.Request.Context(), id); err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, gin.H{"abandoned": true})
}
