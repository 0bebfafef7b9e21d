package pages

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/drivers/rdb"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/integrations/gemini"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/integrations/s3store"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/publish"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/utils"
)

// How long one suggestion request may hold the page
const suggestLockTTL = 2 * time.Minute

// List the pages the caller can manage with listing stats
func (s *Service) ListPagesHandler(w http.ResponseWriter, r *http.Request) {

	user := utils.GetUserFromContext(r)
	query := r.URL.Query()

	filter := models.PageFilter{
		Status:   query.Get("status"),
		PageType: query.Get("type"),
		Search:   strings.TrimSpace(query.Get("search")),
	}

	if !user.IsAdmin() {
		filter.OwnerID = user.ID
	}

	pages, err := s.pagesRepo.ListPages(r.Context(), filter)
	if err != nil {
		log.Printf("Failed to list pages for user '%s': %v", user.ID, err)
		utils.HttpError(w, http.StatusInternalServerError)
		return
	}

	if pages == nil {
		pages = models.Pages{}
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"pages": pages,
		"stats": countStats(pages),
	})
}

// Return one page with every editable field
func (s *Service) GetPageHandler(w http.ResponseWriter, r *http.Request) {

	page, ok := s.loadManaged(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	utils.WriteJSON(w, http.StatusOK, page)
}

// Commit one batch of field changes.
// Rejected fields are answered before the page is even looked up.
func (s *Service) UpdatePageHandler(w http.ResponseWriter, r *http.Request) {

	id := r.PathValue("id")

	var changes map[string]string
	if err := decodeJSON(w, r, &changes); err != nil {
		utils.JSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if _, err := publish.CheckChanges(changes); err != nil {
		writePublishError(w, r, id, err)
		return
	}

	page, ok := s.loadManaged(w, r, id)
	if !ok {
		return
	}

	// A new source document must already be uploaded
	if key := changes[models.FieldSourceKey]; key != "" && s.files != nil {
		exists, err := s.files.ObjectExists(r.Context(), key)
		if err != nil {
			log.Printf("Failed to check the source document '%s' of page '%s': %v", key, page.ID, err)
			utils.HttpError(w, http.StatusInternalServerError)
			return
		}

		if !exists {
			writeFieldErrors(w, []publish.FieldError{
				{Field: models.FieldSourceKey, Reason: "object not found in storage"},
			})
			return
		}
	}

	updated, err := s.publisher.CommitLoaded(r.Context(), page, changes, s.origin(r))
	if err != nil {
		writePublishError(w, r, page.ID, err)
		return
	}

	// The address keeps its token across edits
	s.invalidate(r, updated)

	utils.WriteJSON(w, http.StatusOK, updated)
}

// Delete the page row and its folder of source documents
func (s *Service) DeletePageHandler(w http.ResponseWriter, r *http.Request) {

	page, ok := s.loadManaged(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	sourceKey, err := s.pagesRepo.DeletePage(r.Context(), page.ID)
	if errors.Is(err, models.ErrPageNotFound) {
		utils.JSONError(w, http.StatusNotFound, "Page not found")
		return
	}

	if err != nil {
		log.Printf("Failed to delete page '%s': %v", page.ID, err)
		utils.HttpError(w, http.StatusInternalServerError)
		return
	}

	s.invalidate(r, page)

	// The row is gone either way, leftover objects are only logged
	deleted := 0
	if sourceKey != "" && s.files != nil {
		if prefix, err := s3store.FolderPrefix(sourceKey); err != nil {
			log.Printf("Not deleting the documents of page '%s': %v", page.ID, err)
		} else if deleted, err = s.files.DeleteFolder(r.Context(), prefix); err != nil {
			log.Printf("Failed to delete the documents of page '%s': %v", page.ID, err)
		}
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"id":            page.ID,
		"deleted_files": deleted,
	})
}

// Allocate a preview address once and return it
func (s *Service) GeneratePreviewHandler(w http.ResponseWriter, r *http.Request) {

	var body struct {
		PageID string `json:"pageId"`
	}

	if err := decodeJSON(w, r, &body); err != nil || body.PageID == "" {
		utils.JSONError(w, http.StatusBadRequest, "Missing pageId")
		return
	}

	page, ok := s.loadManaged(w, r, body.PageID)
	if !ok {
		return
	}

	previewURL, err := s.publisher.EnsurePreview(r.Context(), page.ID)
	if err != nil {
		writePublishError(w, r, page.ID, err)
		return
	}

	category := page.Category
	if category == "" {
		category = s.config.DefaultCategory
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"previewUrl": previewURL,
		"category":   category,
	})
}

// Resolve a draft by its preview token.
// Anonymous callers need the preview mode header.
func (s *Service) PreviewPageHandler(w http.ResponseWriter, r *http.Request) {

	token := r.PathValue("token")
	user := utils.GetUserFromContext(r)

	if !user.IsAuthenticated() && r.Header.Get("X-Preview-Mode") != "true" {
		utils.JSONError(w, http.StatusUnauthorized, "Missing user information in headers")
		return
	}

	page, err := s.pagesRepo.GetByDraftURL(r.Context(), "/preview/"+token)
	if errors.Is(err, models.ErrPageNotFound) {
		utils.JSONError(w, http.StatusNotFound, "Page not found")
		return
	}

	if err != nil {
		log.Printf("Failed to resolve preview '%s': %v", token, err)
		utils.HttpError(w, http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, page)
}

// Resolve a published page by the category and token of its address
func (s *Service) PublicPageHandler(w http.ResponseWriter, r *http.Request) {

	category := r.PathValue("category")
	token := r.PathValue("token")

	page, err := rdb.GetCachedData(
		r.Context(),
		s.rdb,
		cacheKey(token),
		s.config.CacheTimeout,
		func() (models.Page, error) {
			page, err := s.pagesRepo.GetPublished(r.Context(), category, token)
			if err != nil {
				return models.Page{}, err
			}
			return *page, nil
		},
	)

	if errors.Is(err, models.ErrPageNotFound) {
		utils.JSONError(w, http.StatusNotFound, "Page not found")
		return
	}

	if err != nil {
		log.Printf("Failed to resolve page '/%s/%s': %v", category, token, err)
		utils.HttpError(w, http.StatusInternalServerError)
		return
	}

	// The cache is keyed by token only
	if !matchesAddress(&page, category, token) {
		utils.JSONError(w, http.StatusNotFound, "Page not found")
		return
	}

	utils.WriteJSON(w, http.StatusOK, page)
}

// Count one visit of a page
func (s *Service) VisitsHandler(w http.ResponseWriter, r *http.Request) {

	var body struct {
		PageID string `json:"pageId"`
	}

	if err := decodeJSON(w, r, &body); err != nil || body.PageID == "" {
		utils.JSONError(w, http.StatusBadRequest, "Missing pageId")
		return
	}

	visitors, err := s.pagesRepo.IncrementVisits(r.Context(), body.PageID)
	if errors.Is(err, models.ErrPageNotFound) {
		utils.JSONError(w, http.StatusNotFound, "Page not found")
		return
	}

	if err != nil {
		log.Printf("Failed to count a visit of page '%s': %v", body.PageID, err)
		utils.HttpError(w, http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"visitors": visitors,
	})
}

// Draft fresh hero, benefits and FAQ copy.
// The suggestions are returned as a change set and never stored.
func (s *Service) SuggestHandler(w http.ResponseWriter, r *http.Request) {

	if s.suggester == nil {
		utils.JSONError(w, http.StatusServiceUnavailable, "Suggestions are not available")
		return
	}

	page, ok := s.loadManaged(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	holder := utils.GetRequestID(r)
	if holder == "" {
		holder = fmt.Sprintf("%s-%d", page.ID, time.Now().UnixNano())
	}

	lock := s.rdb.NewLock("suggest:"+page.ID, holder, suggestLockTTL)
	acquired, err := lock.TryLock(r.Context())
	if err != nil {
		log.Printf("Failed to lock suggestions for page '%s': %v", page.ID, err)
		utils.HttpError(w, http.StatusInternalServerError)
		return
	}

	if !acquired {
		utils.JSONError(w, http.StatusConflict, "Suggestions for this page are already being generated")
		return
	}

	defer func() {
		if err := lock.Unlock(r.Context()); err != nil {
			log.Printf("Failed to unlock suggestions for page '%s': %v", page.ID, err)
		}
	}()

	suggestions, err := s.suggester.SuggestCopy(r.Context(), page)
	switch {
	case errors.Is(err, gemini.ErrDailyLimitReached), errors.Is(err, gemini.ErrMinuteLimitReached):
		utils.JSONError(w, http.StatusTooManyRequests, "Suggestion quota exhausted, try again later")
		return
	case err != nil:
		log.Printf("Failed to suggest copy for page '%s': %v", page.ID, err)
		utils.JSONError(w, http.StatusBadGateway, "Could not generate suggestions")
		return
	}

	gate := publish.Validate(suggestions)
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"changes": gate.Accepted,
	})
}

// loadManaged loads a page and checks the caller may manage it,
// answering the error otherwise.
func (s *Service) loadManaged(w http.ResponseWriter, r *http.Request, id string) (*models.Page, bool) {

	user := utils.GetUserFromContext(r)

	page, err := s.pagesRepo.GetPage(r.Context(), id)
	if errors.Is(err, models.ErrPageNotFound) {
		utils.JSONError(w, http.StatusNotFound, "Page not found")
		return nil, false
	}

	if err != nil {
		log.Printf("Failed to load page '%s': %v", id, err)
		utils.HttpError(w, http.StatusInternalServerError)
		return nil, false
	}

	if !canManage(user, page) {
		utils.HttpError(w, http.StatusForbidden)
		return nil, false
	}

	return page, true
}
