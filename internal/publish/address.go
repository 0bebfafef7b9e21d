package publish

import (
	"context"
	"net/url"
	"strings"
)

// Origin is the scheme and host the inbound request was addressed to
type Origin struct {
	Scheme string
	Host   string
}

// Address is a freshly computed public page address
type Address struct {
	URL   string
	Token string
}

// Allocator composes public page addresses
// in the shape scheme://host/{category}/{token}/{slug}.
type Allocator struct {
	minter          TokenMinter
	defaultCategory string
	defaultSlug     string
}

func NewAllocator(minter TokenMinter, defaultCategory, defaultSlug string) *Allocator {
	return &Allocator{
		minter:          minter,
		defaultCategory: defaultCategory,
		defaultSlug:     defaultSlug,
	}
}

// Allocate computes the public address of a page.
// A token found in currentURL is reused verbatim, so links
// to /{category}/{token}/... keep resolving after edits.
func (a *Allocator) Allocate(
	ctx context.Context,
	currentURL *string,
	currentCategory string,
	requestedCategory string,
	title string,
	origin Origin,
) (Address, error) {

	category := requestedCategory
	if category == "" {
		category = currentCategory
	}
	if category == "" {
		category = a.defaultCategory
	}

	token, ok := ExtractToken(currentURL)
	if !ok {
		var err error
		if token, err = a.minter.Mint(ctx); err != nil {
			return Address{}, err
		}
	}

	slug := Slugify(title)
	if slug == "" {
		slug = a.defaultSlug
	}

	u := url.URL{
		Scheme:  origin.Scheme,
		Host:    origin.Host,
		Path:    "/" + category + "/" + token + "/" + slug,
		RawPath: AddressPath(category, token) + "/" + slug,
	}

	return Address{URL: u.String(), Token: token}, nil
}

// AddressPath is the escaped /{category}/{token} prefix of a public address.
// Stored addresses and lookups both go through it, so a category
// with spaces or diacritics matches in one form only.
func AddressPath(category, token string) string {
	return "/" + url.PathEscape(category) + "/" + url.PathEscape(token)
}

// ExtractToken returns the second to last path segment
// of a public address having at least three segments.
func ExtractToken(address *string) (string, bool) {
	if address == nil || *address == "" {
		return "", false
	}

	path := *address
	if u, err := url.Parse(*address); err == nil {
		path = u.Path
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 3 {
		return "", false
	}

	token := segments[len(segments)-2]
	return token, token != ""
}
