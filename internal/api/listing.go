package api

import (
	"net/http"

	"shopapp/internal/catalog"
	"shopapp/internal/listing"

	"github.com/gin-gonic/gin"
)

const featuredCount = 4

type listingResponse struct {
	listing.State
	ActiveFilters int               `json:"active_filters"`
	Featured      []catalog.Product `json:"featured"`
}

func (s *Server) listingView() listingResponse {
	st := s.app.Listing.State()
	return listingResponse{
		State:         st,
		ActiveFilters: st.ActiveFilterCount(),
		Featured:      st.Featured(featuredCount),
	}
}

type searchReq struct {
	Text string `json:"text"`
}

type categoryReq struct {
	Slug string `json:"slug"`
}

type sortReq struct {
	Sort string `json:"sort"`
}

func (s *Server) getListing(c *gin.Context) {
	c.JSON(http.StatusOK, s.listingView())
}

func (s *Server) setSearch(c *gin.Context) {
	var req searchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.app.Listing.SetSearch(c.Request.Context(), req.Text)
	c.JSON(http.StatusAccepted, s.listingView())
}

func (s *Server) setCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.app.Listing.SetCategory(c.Request.Context(), req.Slug)
	c.JSON(http.StatusAccepted, s.listingView())
}

func (s *Server) setSort(c *gin.Context) {
	var req sortReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sort, err := catalog.ParseSort(req.Sort)
	if err != nil {
		writeError(c, err)
		return
	}
	s.app.Listing.SetSort(c.Request.Context(), sort)
	c.JSON(http.StatusAccepted, s.listingView())
}

func (s *Server) nextPage(c *gin.Context) {
	issued := s.app.Listing.NextPage(c.Request.Context())
	status := http.StatusOK
	if issued {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{"issued": issued, "listing": s.listingView()})
}

func (s *Server) refreshListing(c *gin.Context) {
	s.app.Listing.Refresh(c.Request.Context())
	c.JSON(http.StatusAccepted, s.listingView())
}
