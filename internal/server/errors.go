package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apikeydomain "github.com/frontdesklabs/frontdesk/internal/apikey/domain"
	bookingdomain "github.com/frontdesklabs/frontdesk/internal/booking/domain"
	checkoutdomain "github.com/frontdesklabs/frontdesk/internal/checkout/domain"
	companydomain "github.com/frontdesklabs/frontdesk/internal/company/domain"
	guestdomain "github.com/frontdesklabs/frontdesk/internal/guest/domain"
	nightauditdomain "github.com/frontdesklabs/frontdesk/internal/nightaudit/domain"
	paymentdomain "github.com/frontdesklabs/frontdesk/internal/payment/domain"
	roomdomain "github.com/frontdesklabs/frontdesk/internal/room/domain"
	settingsdomain "github.com/frontdesklabs/frontdesk/internal/settings/domain"
	"github.com/frontdesklabs/frontdesk/internal/tariff"
)

var (
	ErrForbidden    = errors.New("forbidden")
	errInvalidLimit = errors.New("limit must be a positive integer")
)

// statusFor maps domain errors onto HTTP statuses. Anything unmapped is
// an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apikeydomain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, bookingdomain.ErrBookingNotFound),
		errors.Is(err, guestdomain.ErrGuestNotFound),
		errors.Is(err, roomdomain.ErrRoomNotFound),
		errors.Is(err, settingsdomain.ErrSettingNotFound),
		errors.Is(err, companydomain.ErrCompanyNotFound),
		errors.Is(err, companydomain.ErrEntryNotFound),
		errors.Is(err, apikeydomain.ErrKeyNotFound),
		errors.Is(err, nightauditdomain.ErrRunNotFound):
		return http.StatusNotFound

	case errors.Is(err, nightauditdomain.ErrAlreadyRun),
		errors.Is(err, paymentdomain.ErrDepositAlreadyRefunded),
		errors.Is(err, bookingdomain.ErrBookingPosted),
		errors.Is(err, companydomain.ErrEntrySettled),
		errors.Is(err, checkoutdomain.ErrIllegalTransition),
		errors.Is(err, checkoutdomain.ErrFlowCompleted),
		errors.Is(err, checkoutdomain.ErrDepositOutstanding):
		return http.StatusConflict

	case errors.Is(err, bookingdomain.ErrInvalidStay),
		errors.Is(err, paymentdomain.ErrNonPositiveAmount),
		errors.Is(err, checkoutdomain.ErrNotInHouse),
		errors.Is(err, companydomain.ErrCompanyInactive),
		errors.Is(err, companydomain.ErrNotCompanyBilled),
		errors.Is(err, tariff.ErrNonPositiveNights),
		errors.Is(err, tariff.ErrNoUsableRate),
		errors.Is(err, tariff.ErrNegativePenalty):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func abortBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
