package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tender-scraper/models"
	"tender-scraper/storage"
)

// ListingResponse is a stored listing as served to the browsing client.
type ListingResponse struct {
	ID        int64  `json:"id"`
	Source    string `json:"source"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Region    string `json:"region,omitempty"`
	Price     string `json:"price"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	URL       string `json:"url"`
}

// FavoriteResponse is one saved listing.
type FavoriteResponse struct {
	TenderID int64     `json:"tender_id"`
	Source   string    `json:"source"`
	Title    string    `json:"title"`
	Price    string    `json:"price"`
	URL      string    `json:"url"`
	SavedAt  time.Time `json:"saved_at"`
}

// UserRequest registers a chat user.
type UserRequest struct {
	Phone    string `json:"phone"`
	Username string `json:"username"`
}

// RegisterFavoriteRoutes registers the browsing endpoints used by the chat
// front end.
func RegisterFavoriteRoutes(r *gin.Engine, store storage.FavoriteStore) {
	h := &favoritesHandler{store: store}
	g := r.Group("/api/users/:user")
	g.PUT("", h.upsertUser)
	g.GET("/next", h.next)
	g.GET("/favorites", h.list)
	g.POST("/favorites/:tender", h.add)
	g.DELETE("/favorites/:tender", h.remove)
	r.GET("/api/tenders/:tender/url", h.link)
}

type favoritesHandler struct {
	store storage.FavoriteStore
}

func (h *favoritesHandler) upsertUser(c *gin.Context) {
	userID, ok := idParam(c, "user")
	if !ok {
		return
	}
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := models.User{ID: userID, Phone: req.Phone, Username: req.Username}
	if err := h.store.UpsertUser(c.Request.Context(), u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// next returns the newest listing of ?source= that the user has not saved.
func (h *favoritesHandler) next(c *gin.Context) {
	userID, ok := idParam(c, "user")
	if !ok {
		return
	}
	source, ok := models.ParseSource(c.Query("source"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source"})
		return
	}

	l, err := h.store.NextForUser(c.Request.Context(), userID, source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if l == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no listings left"})
		return
	}

	d := models.ParseDescription(l.Description)
	c.JSON(http.StatusOK, ListingResponse{
		ID:        l.ID,
		Source:    string(l.Source),
		Title:     l.Title,
		Category:  d.Category,
		Region:    d.Region,
		Price:     l.Price,
		StartDate: l.StartDate,
		EndDate:   l.EndDate,
		URL:       l.URL,
	})
}

func (h *favoritesHandler) list(c *gin.Context) {
	userID, ok := idParam(c, "user")
	if !ok {
		return
	}
	favs, err := h.store.Favorites(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]FavoriteResponse, 0, len(favs))
	for _, f := range favs {
		out = append(out, FavoriteResponse{
			TenderID: f.TenderID,
			Source:   string(f.Source),
			Title:    f.Title,
			Price:    f.Price,
			URL:      f.URL,
			SavedAt:  f.SavedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *favoritesHandler) add(c *gin.Context) {
	userID, ok := idParam(c, "user")
	if !ok {
		return
	}
	tenderID, ok := idParam(c, "tender")
	if !ok {
		return
	}
	if err := h.store.AddFavorite(c.Request.Context(), userID, tenderID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "added"})
}

func (h *favoritesHandler) remove(c *gin.Context) {
	userID, ok := idParam(c, "user")
	if !ok {
		return
	}
	tenderID, ok := idParam(c, "tender")
	if !ok {
		return
	}
	if err := h.store.RemoveFavorite(c.Request.Context(), userID, tenderID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// link resolves a listing id to its marketplace URL.
func (h *favoritesHandler) link(c *gin.Context) {
	tenderID, ok := idParam(c, "tender")
	if !ok {
		return
	}
	url, err := h.store.URLByID(c.Request.Context(), tenderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if url == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": tenderID, "url": url})
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " id"})
		return 0, false
	}
	return id, true
}
