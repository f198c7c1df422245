package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/restaurantlens/restaurantlens/internal/database"
	"github.com/restaurantlens/restaurantlens/internal/database/models"
	"github.com/restaurantlens/restaurantlens/internal/server/response"
	"github.com/restaurantlens/restaurantlens/pkg/logger"
)

// RestaurantHandler serves the restaurant browse catalog. It reads from the
// database when one is configured, otherwise from a JSON catalog file.
type RestaurantHandler struct {
	store   *database.Store
	catalog []*models.Restaurant
	logger  *logger.Logger
}

// NewRestaurantHandler creates a new restaurant handler. store may be nil.
func NewRestaurantHandler(store *database.Store, catalogPath string, log *logger.Logger) *RestaurantHandler {
	if log == nil {
		log = logger.GetDefault()
	}
	log = log.WithComponent("restaurants-api")

	handler := &RestaurantHandler{
		store:  store,
		logger: log,
	}

	if catalogPath != "" {
		catalog, err := LoadCatalog(catalogPath)
		if err != nil {
			log.Warn("failed to load restaurant catalog: path=%s err=%v", catalogPath, err)
		} else {
			handler.catalog = catalog
		}
	}

	return handler
}

// LoadCatalog reads the restaurant catalog from a JSON file
func LoadCatalog(path string) ([]*models.Restaurant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog []*models.Restaurant
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	return catalog, nil
}

// List handles GET /api/v1/restaurants
func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.WriteError(w, getRequestID(r), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	filter := database.RestaurantFilter{
		Search:     r.URL.Query().Get("search"),
		Cuisine:    r.URL.Query().Get("cuisine"),
		City:       r.URL.Query().Get("city"),
		PriceRange: r.URL.Query().Get("price"),
	}
	if minStr := r.URL.Query().Get("min_rating"); minStr != "" {
		if f, err := strconv.ParseFloat(minStr, 64); err == nil {
			filter.MinRating = f
		}
	}
	_, pageSize, offset := getPagination(r)
	filter.Limit = pageSize
	filter.Offset = offset

	if h.store != nil {
		restaurants, err := h.store.ListRestaurants(r.Context(), filter)
		if err != nil {
			h.logger.WithContext(r.Context()).Error("failed to list restaurants: %v", err)
			response.WriteInternalServerError(w, getRequestID(r), "Failed to list restaurants", nil)
			return
		}
		response.WriteSuccess(w, getRequestID(r), restaurants, nil)
		return
	}

	response.WriteSuccess(w, getRequestID(r), h.filterCatalog(filter), nil)
}

func (h *RestaurantHandler) filterCatalog(filter database.RestaurantFilter) []*models.Restaurant {
	search := strings.ToLower(filter.Search)

	matched := make([]*models.Restaurant, 0, len(h.catalog))
	for _, rest := range h.catalog {
		if search != "" &&
			!strings.Contains(strings.ToLower(rest.Name), search) &&
			!strings.Contains(strings.ToLower(rest.Description), search) {
			continue
		}
		if filter.PriceRange != "" && rest.PriceRange != filter.PriceRange {
			continue
		}
		if filter.Cuisine != "" && !strings.EqualFold(rest.Cuisine, filter.Cuisine) {
			continue
		}
		if filter.City != "" && !strings.EqualFold(rest.City, filter.City) {
			continue
		}
		if filter.MinRating > 0 && rest.Rating < filter.MinRating {
			continue
		}
		matched = append(matched, rest)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Rating != matched[j].Rating {
			return matched[i].Rating > matched[j].Rating
		}
		return matched[i].Name < matched[j].Name
	})

	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]

	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	return matched
}

// Catalog returns the loaded in-memory catalog
func (h *RestaurantHandler) Catalog() []*models.Restaurant {
	return h.catalog
}
