package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	bookingdomain "github.com/frontdesklabs/frontdesk/internal/booking/domain"
)

type createBookingRequest struct {
	GuestID        string          `json:"guest_id" binding:"required"`
	RoomID         string          `json:"room_id" binding:"required"`
	CheckInDate    string          `json:"check_in_date" binding:"required"`
	CheckOutDate   string          `json:"check_out_date" binding:"required"`
	RoomRate       decimal.Decimal `json:"room_rate"`
	ExtraBedCharge decimal.Decimal `json:"extra_bed_charge"`
	OccupantType   string          `json:"occupant_type" binding:"omitempty,oneof=domestic foreign"`
	Membership     string          `json:"membership" binding:"omitempty,oneof=member non_member"`
	CompanyID      string          `json:"company_id"`
	Source         string          `json:"source"`
	Remarks        string          `json:"remarks"`
}

func (s *Server) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	guestID, err := snowflake.ParseString(req.GuestID)
	if err != nil {
		abortBadRequest(c, err)
		return
	}
	roomID, err := snowflake.ParseString(req.RoomID)
	if err != nil {
		abortBadRequest(c, err)
		return
	}
	checkIn, err := parseDate(req.CheckInDate)
	if err != nil {
		abortBadRequest(c, err)
		return
	}
	checkOut, err := parseDate(req.CheckOutDate)
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	booking := &bookingdomain.Booking{
		GuestID:        guestID,
		RoomID:         roomID,
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		RoomRate:       req.RoomRate,
		ExtraBedCharge: req.ExtraBedCharge,
		OccupantType:   req.OccupantType,
		Membership:     req.Membership,
		Source:         req.Source,
		Remarks:        req.Remarks,
		CreatedBy:      actor(c),
	}
	if req.CompanyID != "" {
		companyID, err := snowflake.ParseString(req.CompanyID)
		if err != nil {
			abortBadRequest(c, err)
			return
		}
		booking.CompanyID = &companyID
	}

	created, err := s.bookings.Create(c.Request.Context(), booking)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondCreated(c, created)
}

func (s *Server) GetBooking(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	booking, err := s.bookings.Get(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, booking)
}

func (s *Server) GetBookingPosted(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	posted, postedDate, err := s.bookings.IsPosted(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, gin.H{"is_posted": posted, "posted_date": postedDate})
}

func (s *Server) SweepBookings(c *gin.Context) {
	result, err := s.bookings.Sweep(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, result)
}

func (s *Server) ListBookingPayments(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	payments, err := s.ledger.ListByBooking(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, payments)
}
