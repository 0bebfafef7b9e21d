package pages

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/publish"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/utils"
)

// Request bodies above this size are rejected
const maxBodyBytes = 1 << 20

// Counts shown above the pages listing
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"published"`
	Pending  int `json:"pending"`
	Draft    int `json:"draft"`
	Rejected int `json:"rejected"`
	Ebook    int `json:"ebook"`
	Sales    int `json:"sales"`
	Visitors int `json:"visitors"`
	Leads    int `json:"leads"`
}

func countStats(pages models.Pages) Stats {
	var stats Stats
	for _, p := range pages {
		stats.Total++
		stats.Visitors += p.Visitors
		stats.Leads += p.Leads

		switch p.Status {
		case models.StatusActive:
			stats.Active++
		case models.StatusPending:
			stats.Pending++
		case models.StatusDraft:
			stats.Draft++
		case models.StatusRejected:
			stats.Rejected++
		}

		switch p.PageType {
		case "ebook":
			stats.Ebook++
		case "sales":
			stats.Sales++
		}
	}
	return stats
}

// Cache key of a published page
func cacheKey(token string) string {
	return "page:" + token
}

// canManage reports whether the caller may see or change the page.
// Partners only manage their own pages.
func canManage(user *models.User, page *models.Page) bool {
	return user.IsAdmin() || (user.IsAuthenticated() && page.OwnerID == user.ID)
}

// decodeJSON reads a size limited JSON body into dest
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dest)
	if errors.Is(err, io.EOF) {
		return errors.New("empty request body")
	}
	return err
}

// writeFieldErrors answers 400 with the list of rejected fields
func writeFieldErrors(w http.ResponseWriter, fieldErrors []publish.FieldError) {
	utils.WriteJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "Invalid changes",
		"errors": fieldErrors,
	})
}

// writePublishError maps the publishing errors to HTTP statuses
func writePublishError(w http.ResponseWriter, r *http.Request, pageID string, err error) {

	var (
		validationErr  *publish.ValidationError
		notFoundErr    *publish.NotFoundError
		persistenceErr *publish.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		writeFieldErrors(w, validationErr.Errors)
	case errors.As(err, &notFoundErr):
		utils.JSONError(w, http.StatusNotFound, "Page not found")
	case errors.As(err, &persistenceErr):
		log.Printf("Storage failure on page '%s' (%s): %v", pageID, utils.GetRequestID(r), err)
		utils.HttpError(w, http.StatusInternalServerError)
	default:
		log.Printf("Unexpected failure on page '%s' (%s): %v", pageID, utils.GetRequestID(r), err)
		utils.HttpError(w, http.StatusInternalServerError)
	}
}

// origin is the scheme and host the page addresses get built from
func (s *Service) origin(r *http.Request) publish.Origin {
	base := utils.GetBaseURL(r, s.config.ForceHTTPS)
	return publish.Origin{Scheme: base.Scheme, Host: base.Host}
}

// invalidate drops the cached copy of a published page
func (s *Service) invalidate(r *http.Request, page *models.Page) {
	token, ok := publish.ExtractToken(page.URL)
	if !ok {
		return
	}

	if err := s.rdb.Delete(r.Context(), cacheKey(token)); err != nil {
		log.Printf("Failed to invalidate the cache of page '%s': %v", page.ID, err)
	}
}

// matchesAddress checks a page still lives under /{category}/{token}.
// The path values arrive decoded, stored addresses are escaped.
func matchesAddress(page *models.Page, category, token string) bool {
	return page.Status == models.StatusActive &&
		strings.Contains(page.PublicURL()+"/", publish.AddressPath(category, token)+"/")
}
