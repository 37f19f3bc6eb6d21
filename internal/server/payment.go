package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	paymentdomain "github.com/frontdesklabs/frontdesk/internal/payment/domain"
)

type recordPaymentRequest struct {
	BookingID string          `json:"booking_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Method    string          `json:"method" binding:"required"`
	Notes     string          `json:"notes"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	bookingID, err := snowflake.ParseString(req.BookingID)
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	payment, err := s.ledger.Record(c.Request.Context(), paymentdomain.NewPayment{
		BookingID: bookingID,
		Amount:    req.Amount,
		Method:    req.Method,
		Notes:     req.Notes,
		CreatedBy: actor(c),
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondCreated(c, payment)
}

type refundDepositRequest struct {
	BookingID string          `json:"booking_id" binding:"required"`
	Method    string          `json:"method" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

func (s *Server) RefundDeposit(c *gin.Context) {
	var req refundDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	bookingID, err := snowflake.ParseString(req.BookingID)
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	refund, err := s.deposits.Refund(c.Request.Context(), bookingID, req.Method, req.Amount, actor(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondCreated(c, refund)
}
