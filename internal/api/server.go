package api

import (
	"context"
	"errors"
	"net/http"

	"shopapp/internal/app"
	"shopapp/internal/catalog"
	"shopapp/internal/checkout"
	"shopapp/internal/logger"
	"shopapp/internal/middleware"
	"shopapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// Paths that fan out to the catalog API get the strict rate tier.
var strictPaths = []string{
	"/cart/stock-check",
	"/checkout/prepare",
	"/listing/refresh",
}

// Server is the local HTTP/JSON bridge the UI shell sends its intents to.
type Server struct {
	engine  *gin.Engine
	app     *app.App
	limiter *middleware.RateLimiter
	handler http.Handler
}

// NewServer builds the routes. An empty secret leaves the bridge open.
func NewServer(a *app.App, secret string) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		engine:  r,
		app:     a,
		limiter: middleware.NewRateLimiter(strictPaths...),
	}
	s.registerRoutes()

	var h http.Handler = r
	h = s.limiter.Middleware(h)
	h = middleware.LoggingMiddleware(h)
	h = middleware.Auth(secret, "/health")(h)
	h = logger.RequestIDMiddleware(h)
	s.handler = h
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

// Start runs background upkeep until ctx is done.
func (s *Server) Start(ctx context.Context) {
	go s.limiter.Run(ctx)
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.health)

	listing := s.engine.Group("/listing")
	{
		listing.GET("", s.getListing)
		listing.POST("/search", s.setSearch)
		listing.POST("/category", s.setCategory)
		listing.POST("/sort", s.setSort)
		listing.POST("/next", s.nextPage)
		listing.POST("/refresh", s.refreshListing)
	}

	s.engine.GET("/products/:id", s.getProduct)

	cart := s.engine.Group("/cart")
	{
		cart.GET("", s.getCart)
		cart.DELETE("", s.clearCart)
		cart.POST("/items", s.addToCart)
		cart.POST("/items/:id/increment", s.incrementQuantity)
		cart.POST("/items/:id/decrement", s.decrementQuantity)
		cart.DELETE("/items/:id", s.removeFromCart)
		cart.POST("/stock-check", s.stockCheck)
	}

	favorites := s.engine.Group("/favorites")
	{
		favorites.GET("", s.listFavorites)
		favorites.DELETE("", s.clearFavorites)
		favorites.PUT("/:id", s.addFavorite)
		favorites.DELETE("/:id", s.removeFavorite)
		favorites.POST("/:id/toggle", s.toggleFavorite)
	}

	co := s.engine.Group("/checkout")
	{
		co.GET("/options", s.checkoutOptions)
		co.POST("/select", s.checkoutSelect)
		co.POST("/prepare", s.checkoutPrepare)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"cart_lines": s.app.Cart.Len(),
		"persist":    s.app.Persister.Stats(),
		"listing":    s.app.Listing.Stats(),
	})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrNetwork):
		return http.StatusBadGateway
	case errors.Is(err, catalog.ErrInvalidSort),
		errors.Is(err, checkout.ErrUnknownAddress),
		errors.Is(err, checkout.ErrUnknownPayment):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrCartEmpty):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
}

func parseID(c *gin.Context) (int, bool) {
	id, err := utils.ParseProductID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return id, true
}
