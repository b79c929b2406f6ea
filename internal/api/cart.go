package api

import (
	"net/http"

	"shopapp/internal/cart"
	"shopapp/internal/catalog"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type cartResponse struct {
	Lines   []cart.Line     `json:"lines"`
	Totals  cart.Totals     `json:"totals"`
	Savings decimal.Decimal `json:"savings"`
}

func (s *Server) cartView() cartResponse {
	lines := s.app.Cart.Lines()
	totals := cart.ComputeTotals(lines)
	return cartResponse{Lines: lines, Totals: totals, Savings: totals.Savings()}
}

type productResponse struct {
	catalog.Product
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Gallery         []string        `json:"gallery"`
	InStock         bool            `json:"in_stock"`
	Favorite        bool            `json:"favorite"`
	InCart          int             `json:"in_cart"`
}

type addToCartReq struct {
	ProductID int `json:"product_id" binding:"required,gt=0"`
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := s.app.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := productResponse{
		Product:         *p,
		DiscountedPrice: p.DiscountedPrice(),
		Gallery:         p.Gallery(),
		InStock:         p.InStock(),
		Favorite:        s.app.Favorites.Has(id),
	}
	if line, found := s.app.Cart.Line(id); found {
		resp.InCart = line.Quantity
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, s.cartView())
}

// addToCart snapshots the product the user is looking at: the listed copy when
// the product is in the list, otherwise the catalog's detail view.
func (s *Server) addToCart(c *gin.Context) {
	var req addToCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	p, ok := s.app.Listing.Product(req.ProductID)
	if !ok {
		found, err := s.app.Catalog.GetProduct(c.Request.Context(), req.ProductID)
		if err != nil {
			writeError(c, err)
			return
		}
		p = *found
	}
	s.app.Cart.AddToCart(p)
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) incrementQuantity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s.app.Cart.IncrementQuantity(id)
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) decrementQuantity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s.app.Cart.DecrementQuantity(id)
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) removeFromCart(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s.app.Cart.RemoveFromCart(id)
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) clearCart(c *gin.Context) {
	s.app.Cart.ClearCart()
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) stockCheck(c *gin.Context) {
	res, err := s.app.Stock.Reconcile(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "cart": s.cartView()})
}
