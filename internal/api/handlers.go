package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"voyago/internal/cache"
	"voyago/internal/models"
	"voyago/internal/service/travel"
)

// Completer is the completion client surface the handlers depend on.
type Completer interface {
	Chat(ctx context.Context, system, user string) (string, error)
	CompleteJSON(ctx context.Context, system, user string) (map[string]any, error)
}

// ImageSearcher resolves a free-text query to a photo URL, nil when nothing
// could be found.
type ImageSearcher interface {
	Search(ctx context.Context, query string) *string
}

const (
	travelSystemPrompt = "You are a travel assistant. Return a JSON object with: summary (string), country (string), coordinates ({lat, lon}), and attractions (array of {name, description, rating (number 1-5)}). Do not use unknown as country."
	chatSystemPrompt   = "You are a helpful travel assistant. Help users plan their trips and answer questions about destinations."

	// maxAttractionImages caps the per-request image fan-out.
	maxAttractionImages = 3

	defaultCacheTTL = 15 * time.Minute
)

// Handler wires HTTP routes to the travel store, the completion client and
// the image lookup.
type Handler struct {
	store    *travel.Service
	ai       Completer
	images   ImageSearcher
	cache    *cache.Client
	cacheTTL time.Duration
}

// NewHandler constructs a Handler instance. cacheClient may be nil; searches
// then go uncached.
func NewHandler(store *travel.Service, completer Completer, imgs ImageSearcher, cacheClient *cache.Client, cacheTTL time.Duration) *Handler {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &Handler{
		store:    store,
		ai:       completer,
		images:   imgs,
		cache:    cacheClient,
		cacheTTL: cacheTTL,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/travel/search", h.travelSearch)
	api.POST("/chat", h.chatSend)
	api.GET("/chat/history", h.chatHistory)
	api.GET("/itineraries", h.listItineraries)
	api.POST("/itineraries", h.createItinerary)
	api.POST("/itineraries/generate", h.generateItinerary)
	api.GET("/itineraries/:id", h.getItinerary)
}

func (h *Handler) travelSearch(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "City is required"})
		return
	}
	ctx := c.Request.Context()

	cacheKey := "travel:search:" + strings.ToLower(city)
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			return
		}
	}

	cityImage := h.images.Search(ctx, city)
	doc, err := h.ai.CompleteJSON(ctx, travelSystemPrompt, "Tell me about "+city)
	if err != nil {
		log.Printf("travel search completion: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch travel info"})
		return
	}

	attractions, _ := doc["attractions"].([]any)
	if attractions == nil {
		attractions = []any{}
	}
	if len(attractions) > maxAttractionImages {
		attractions = attractions[:maxAttractionImages]
	}
	h.enrichAttractions(ctx, city, attractions)
	doc["attractions"] = attractions
	doc["cityImage"] = cityImage

	body, err := json.Marshal(doc)
	if err != nil {
		log.Printf("travel search encode: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch travel info"})
		return
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, body, h.cacheTTL); err != nil {
			log.Printf("travel search cache: %v", err)
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// enrichAttractions resolves an image for each attraction concurrently. Every
// lookup is independent and best-effort.
func (h *Handler) enrichAttractions(ctx context.Context, city string, attractions []any) {
	var wg sync.WaitGroup
	for _, raw := range attractions {
		attr, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := attr["name"].(string)
		wg.Add(1)
		go func(attr map[string]any, name string) {
			defer wg.Done()
			if img := h.images.Search(ctx, city+" "+name); img != nil {
				attr["image"] = *img
			} else {
				attr["image"] = nil
			}
		}(attr, name)
	}
	wg.Wait()
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) chatSend(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input"})
		return
	}
	ctx := c.Request.Context()

	if _, err := h.store.CreateMessage(ctx, models.RoleUser, req.Message); err != nil {
		log.Printf("chat store user message: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Chat failed"})
		return
	}

	// The user message above is deliberately kept even when completion
	// fails: the log records what was asked.
	reply, err := h.ai.Chat(ctx, chatSystemPrompt, req.Message)
	if err != nil {
		log.Printf("chat completion: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Chat failed"})
		return
	}
	if _, err := h.store.CreateMessage(ctx, models.RoleAssistant, reply); err != nil {
		log.Printf("chat store assistant message: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Chat failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": models.RoleAssistant, "content": reply})
}

func (h *Handler) chatHistory(c *gin.Context) {
	msgs, err := h.store.ListMessages(c.Request.Context())
	if err != nil {
		log.Printf("chat history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load chat history"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) listItineraries(c *gin.Context) {
	items, err := h.store.ListItineraries(c.Request.Context())
	if err != nil {
		log.Printf("list itineraries: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load itineraries"})
		return
	}
	c.JSON(http.StatusOK, items)
}

type createItineraryRequest struct {
	Destination string          `json:"destination" binding:"required"`
	Content     json.RawMessage `json:"content" binding:"required"`
}

func (h *Handler) createItinerary(c *gin.Context) {
	var req createItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input"})
		return
	}
	if strings.TrimSpace(req.Destination) == "" || !json.Valid(req.Content) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input"})
		return
	}
	item, err := h.store.CreateItinerary(c.Request.Context(), req.Destination, req.Content)
	if err != nil {
		log.Printf("create itinerary: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save itinerary"})
		return
	}
	c.JSON(http.StatusCreated, item)
}

type generateItineraryRequest struct {
	City        string `json:"city" binding:"required"`
	Days        int    `json:"days" binding:"required,min=1,max=14"`
	Preferences string `json:"preferences"`
}

func (h *Handler) generateItinerary(c *gin.Context) {
	var req generateItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.City) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input"})
		return
	}
	preferences := strings.TrimSpace(req.Preferences)
	if preferences == "" {
		preferences = "General"
	}
	prompt := fmt.Sprintf(
		`Create a %d-day itinerary for %s. Preferences: %s. Return JSON with structure: { "destination": %q, "content": { "days": [{"day": 1, "title": "...", "activities": [...]}] } }`,
		req.Days, req.City, preferences, req.City,
	)

	ctx := c.Request.Context()
	doc, err := h.ai.CompleteJSON(ctx, "", prompt)
	if err != nil {
		log.Printf("itinerary generation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate itinerary"})
		return
	}
	content, ok := doc["content"]
	if !ok || content == nil {
		log.Printf("itinerary generation: reply has no content field")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate itinerary"})
		return
	}
	raw, err := json.Marshal(content)
	if err != nil {
		log.Printf("itinerary generation encode: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate itinerary"})
		return
	}

	saved, err := h.store.CreateItinerary(ctx, req.City, raw)
	if err != nil {
		log.Printf("itinerary generation save: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate itinerary"})
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) getItinerary(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input"})
		return
	}
	item, err := h.store.GetItinerary(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
			return
		}
		log.Printf("get itinerary: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load itinerary"})
		return
	}
	c.JSON(http.StatusOK, item)
}
