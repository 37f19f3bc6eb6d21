package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	companydomain "github.com/frontdesklabs/frontdesk/internal/company/domain"
)

type createCompanyRequest struct {
	Name         string          `json:"name" binding:"required"`
	ContactEmail string          `json:"contact_email" binding:"omitempty,email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	CreditLimit  decimal.Decimal `json:"credit_limit"`
}

func (s *Server) CreateCompany(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	company, err := s.company.Create(c.Request.Context(), companydomain.NewCompany{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Phone:        req.Phone,
		Address:      req.Address,
		CreditLimit:  req.CreditLimit,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondCreated(c, company)
}

func (s *Server) ListCompanies(c *gin.Context) {
	companies, err := s.company.List(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, companies)
}

func (s *Server) ListCompanyLedgers(c *gin.Context) {
	filter := companydomain.EntryFilter{Status: c.Query("status")}
	if raw := c.Query("company_id"); raw != "" {
		companyID, err := snowflake.ParseString(raw)
		if err != nil {
			abortBadRequest(c, err)
			return
		}
		filter.CompanyID = &companyID
	}

	entries, err := s.company.ListEntries(c.Request.Context(), filter)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, entries)
}

func (s *Server) SettleCompanyLedger(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		abortBadRequest(c, err)
		return
	}

	entry, err := s.company.Settle(c.Request.Context(), id, actor(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	respondData(c, entry)
}
