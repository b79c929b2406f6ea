package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type selectReq struct {
	AddressID string `json:"address_id"`
	PaymentID string `json:"payment_id"`
}

func (s *Server) checkoutOptions(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.Checkout.Options())
}

func (s *Server) checkoutSelect(c *gin.Context) {
	var req selectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := s.app.Checkout.Select(req.AddressID, req.PaymentID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.app.Checkout.Options())
}

func (s *Server) checkoutPrepare(c *gin.Context) {
	summary, err := s.app.Checkout.Prepare(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
