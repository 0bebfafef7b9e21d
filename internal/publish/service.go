package publish

import (
	"context"
	"errors"
	"log"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
)

// Store is the slice of the page store the publishing pipeline needs
type Store interface {
	// GetPage loads a single page, models.ErrPageNotFound if absent
	GetPage(ctx context.Context, id string) (*models.Page, error)
	// UpdateFields writes all the fields in one statement and returns the row
	UpdateFields(ctx context.Context, id string, fields map[string]string) (*models.Page, error)
	// SetDraftURL stores the preview address only if none is set yet
	SetDraftURL(ctx context.Context, id, draftURL string) (bool, error)
}

type Service struct {
	store       Store
	allocator   *Allocator
	minter      TokenMinter
	defaultSlug string
}

func New(store Store, allocator *Allocator, minter TokenMinter, defaultSlug string) *Service {
	return &Service{
		store:       store,
		allocator:   allocator,
		minter:      minter,
		defaultSlug: defaultSlug,
	}
}

// Commit applies one batch of field changes to a page.
// Either every change is valid and all of them are written
// in a single update, or nothing is written.
func (s *Service) Commit(
	ctx context.Context,
	pageID string,
	changes map[string]string,
	origin Origin,
) (*models.Page, error) {

	accepted, err := CheckChanges(changes)
	if err != nil {
		return nil, err
	}

	current, err := s.store.GetPage(ctx, pageID)
	if errors.Is(err, models.ErrPageNotFound) {
		return nil, &NotFoundError{PageID: pageID}
	}

	if err != nil {
		return nil, &PersistenceError{Op: "load page " + pageID, Err: err}
	}

	return s.commit(ctx, current, accepted, origin)
}

// CommitLoaded is Commit for a caller that already holds the stored row.
// The page is not read again.
func (s *Service) CommitLoaded(
	ctx context.Context,
	current *models.Page,
	changes map[string]string,
	origin Origin,
) (*models.Page, error) {

	accepted, err := CheckChanges(changes)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, current, accepted, origin)
}

// CheckChanges runs the gate and returns the accepted fields,
// or a ValidationError when any field is rejected or nothing is left.
func CheckChanges(changes map[string]string) (map[string]string, error) {
	gate := Validate(changes)
	if len(gate.Errors) > 0 {
		return nil, &ValidationError{Errors: gate.Errors}
	}

	if len(gate.Accepted) == 0 {
		return nil, &ValidationError{Errors: []FieldError{
			{Field: "*", Reason: "no fields to update"},
		}}
	}

	return gate.Accepted, nil
}

func (s *Service) commit(
	ctx context.Context,
	current *models.Page,
	fields map[string]string,
	origin Origin,
) (*models.Page, error) {

	pageID := current.ID
	if NeedsNewAddress(current, fields) {

		addr, err := s.allocator.Allocate(
			ctx,
			current.URL,
			current.Category,
			fields[models.FieldCategory],
			pickTitle(current, fields, s.defaultSlug),
			origin,
		)

		if err != nil {
			return nil, &PersistenceError{Op: "allocate address for page " + pageID, Err: err}
		}

		log.Printf("Page %s gets the public address %s", pageID, addr.URL)
		fields[models.FieldURL] = addr.URL
	}

	updated, err := s.store.UpdateFields(ctx, pageID, fields)
	if errors.Is(err, models.ErrPageNotFound) {
		return nil, &NotFoundError{PageID: pageID}
	}

	if err != nil {
		return nil, &PersistenceError{Op: "update page " + pageID, Err: err}
	}

	return updated, nil
}

// NeedsNewAddress reports whether the accepted changes publish the page
// or move an already published page to another category.
func NeedsNewAddress(current *models.Page, accepted map[string]string) bool {

	status, hasStatus := accepted[models.FieldStatus]
	publishing := current.Status != models.StatusActive &&
		hasStatus && status == string(models.StatusActive)

	category := accepted[models.FieldCategory]
	recategorizing := current.Status == models.StatusActive &&
		category != "" && category != current.Category

	return publishing || recategorizing
}

// EnsurePreview returns the page's preview address,
// allocating /preview/{token} the first time only.
func (s *Service) EnsurePreview(ctx context.Context, pageID string) (string, error) {

	page, err := s.store.GetPage(ctx, pageID)
	if errors.Is(err, models.ErrPageNotFound) {
		return "", &NotFoundError{PageID: pageID}
	}

	if err != nil {
		return "", &PersistenceError{Op: "load page " + pageID, Err: err}
	}

	if page.DraftURL != nil && *page.DraftURL != "" {
		return *page.DraftURL, nil
	}

	token, err := s.minter.Mint(ctx)
	if err != nil {
		return "", &PersistenceError{Op: "mint preview token for page " + pageID, Err: err}
	}

	draftURL := "/preview/" + token
	stored, err := s.store.SetDraftURL(ctx, pageID, draftURL)
	if err != nil {
		return "", &PersistenceError{Op: "store preview address of page " + pageID, Err: err}
	}

	if stored {
		return draftURL, nil
	}

	// Someone else allocated it in the meantime, or the page is gone
	page, err = s.store.GetPage(ctx, pageID)
	if errors.Is(err, models.ErrPageNotFound) {
		return "", &NotFoundError{PageID: pageID}
	}

	if err != nil {
		return "", &PersistenceError{Op: "reload page " + pageID, Err: err}
	}

	if page.DraftURL == nil {
		return "", &PersistenceError{
			Op:  "store preview address of page " + pageID,
			Err: errors.New("preview address was not stored"),
		}
	}

	return *page.DraftURL, nil
}

// pickTitle prefers the display title, then the hero headline.
// Values from the change set win over the stored ones.
func pickTitle(current *models.Page, changes map[string]string, fallback string) string {
	for _, field := range []string{models.FieldTitle, models.FieldHeroHeadline} {
		if v := changes[field]; v != "" {
			return v
		}
		if v := current.Fields[field]; v != "" {
			return v
		}
	}
	return fallback
}
