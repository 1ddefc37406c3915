package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/janskylukas/bond-service/internal/domain"
)

func (s *Server) listBonds(c *gin.Context) {
	bonds, err := s.BondService.ListBonds(c.Request.Context(), ownerID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]bondResponse, 0, len(bonds))
	for _, b := range bonds {
		resp = append(resp, newBondResponse(b, s.Numeric))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createBond(c *gin.Context) {
	var req bondRequest
	if !bindRequest(c, &req) {
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(c, err)
		return
	}

	b, err := s.BondService.CreateBond(c.Request.Context(), ownerID(c), input)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newBondResponse(b, s.Numeric))
}

func (s *Server) getBond(c *gin.Context) {
	bondID, ok := bondIDParam(c)
	if !ok {
		return
	}

	b, err := s.BondService.GetBond(c.Request.Context(), ownerID(c), bondID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newBondResponse(b, s.Numeric))
}

func (s *Server) updateBond(c *gin.Context) {
	bondID, ok := bondIDParam(c)
	if !ok {
		return
	}

	var req bondRequest
	if !bindRequest(c, &req) {
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(c, err)
		return
	}

	b, err := s.BondService.UpdateBond(c.Request.Context(), ownerID(c), bondID, input)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newBondResponse(b, s.Numeric))
}

func (s *Server) patchBond(c *gin.Context) {
	bondID, ok := bondIDParam(c)
	if !ok {
		return
	}

	var req bondRequest
	if !bindRequest(c, &req) {
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		writeError(c, err)
		return
	}

	b, err := s.BondService.PatchBond(c.Request.Context(), ownerID(c), bondID, patch)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newBondResponse(b, s.Numeric))
}

func (s *Server) deleteBond(c *gin.Context) {
	bondID, ok := bondIDParam(c)
	if !ok {
		return
	}

	if err := s.BondService.DeleteBond(c.Request.Context(), ownerID(c), bondID); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) portfolioAnalysis(c *gin.Context) {
	summary, err := s.PortfolioService.Analyze(c.Request.Context(), ownerID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPortfolioResponse(summary, s.Numeric))
}

// bondIDParam parses the :id path segment; anything but a UUID cannot name a bond
func bondIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, domain.ErrBondNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func bindRequest(c *gin.Context, req *bondRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	return true
}
