package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) favoritesView() gin.H {
	return gin.H{"ids": s.app.Favorites.IDs(), "count": s.app.Favorites.Count()}
}

func (s *Server) listFavorites(c *gin.Context) {
	c.JSON(http.StatusOK, s.favoritesView())
}

func (s *Server) addFavorite(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s.app.Favorites.AddFavorite(id)
	c.JSON(http.StatusOK, s.favoritesView())
}

func (s *Server) removeFavorite(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s.app.Favorites.RemoveFavorite(id)
	c.JSON(http.StatusOK, s.favoritesView())
}

func (s *Server) toggleFavorite(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	favorite := s.app.Favorites.ToggleFavorite(id)
	c.JSON(http.StatusOK, gin.H{"id": id, "favorite": favorite})
}

func (s *Server) clearFavorites(c *gin.Context) {
	s.app.Favorites.ClearFavorites()
	c.JSON(http.StatusOK, s.favoritesView())
}
