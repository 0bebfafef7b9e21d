package categories

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/drivers/rdb"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
	categoriesRepo "github.com/MarcinMove37ai/hps-app-sub002/internal/repositories/categories"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/utils"
)

// List categories, the unfiltered list is served from cache
func (s *Service) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {

	search := strings.TrimSpace(r.URL.Query().Get("search"))

	var (
		categories models.Categories
		err        error
	)

	if search == "" {
		categories, err = rdb.GetCachedData(
			r.Context(),
			s.rdb,
			categoriesKey,
			s.config.CacheTimeout,
			func() (models.Categories, error) {
				return s.catsRepo.GetCategories(r.Context(), "")
			},
		)
	} else {
		categories, err = s.catsRepo.GetCategories(r.Context(), search)
	}

	if err != nil {
		log.Printf("Failed to list categories (search %q): %v", search, err)
		utils.HttpError(w, http.StatusInternalServerError)
		return
	}

	if categories == nil {
		categories = models.Categories{}
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// Create a category, admins only
func (s *Service) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {

	var body struct {
		Name      string `json:"category"`
		ShortDesc string `json:"shortDesc"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		utils.JSONError(w, http.StatusBadRequest, "Missing category name")
		return
	}

	category, err := s.catsRepo.InsertCategory(r.Context(), body.Name, body.ShortDesc)
	switch {
	case errors.Is(err, categoriesRepo.ErrInvalidCategory):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, categoriesRepo.ErrCategoryExists):
		utils.JSONError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		log.Printf("Failed to create category %q: %v", body.Name, err)
		utils.HttpError(w, http.StatusInternalServerError)
		return
	}

	if err := s.rdb.Delete(r.Context(), categoriesKey); err != nil {
		log.Printf("Failed to invalidate the categories cache: %v", err)
	}

	utils.WriteJSON(w, http.StatusCreated, category)
}
