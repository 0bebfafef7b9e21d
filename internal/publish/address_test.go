package publish

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// Mints predictable tokens
type seqMinter struct {
	tokens []string
	calls  int
	err    error
}

func (m *seqMinter) Mint(ctx context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	token := m.tokens[m.calls%len(m.tokens)]
	m.calls++
	return token, nil
}

func ptr(s string) *string { return &s }

var testOrigin = Origin{Scheme: "https", Host: "partners.example.com"}

func TestAllocate(t *testing.T) {

	tests := []struct {
		name              string
		currentURL        *string
		currentCategory   string
		requestedCategory string
		title             string
		expectedURL       string
		expectedToken     string
		expectedMints     int
	}{
		{
			"fresh page, fallback category and slug",
			nil, "", "", "",
			"https://partners.example.com/p/NEWTOKEN01/strona",
			"NEWTOKEN01", 1,
		},
		{
			"fresh page, current category",
			nil, "omega", "", "Omega 3 Guide",
			"https://partners.example.com/omega/NEWTOKEN01/omega-3-guide",
			"NEWTOKEN01", 1,
		},
		{
			"requested category wins",
			nil, "omega", "sport", "Omega 3 Guide",
			"https://partners.example.com/sport/NEWTOKEN01/omega-3-guide",
			"NEWTOKEN01", 1,
		},
		{
			"existing token reused",
			ptr("https://old.example.com/omega/abcDEF1234/old-title"), "omega", "sport", "New title",
			"https://partners.example.com/sport/abcDEF1234/new-title",
			"abcDEF1234", 0,
		},
		{
			"symbols only title falls back",
			ptr("http://localhost:5000/p/tok123/x"), "p", "", "?!?",
			"https://partners.example.com/p/tok123/strona",
			"tok123", 0,
		},
		{
			"too short address gets a new token",
			ptr("https://partners.example.com/tok123/slug"), "p", "", "Title",
			"https://partners.example.com/p/NEWTOKEN01/title",
			"NEWTOKEN01", 1,
		},
		{
			"category with diacritics is escaped",
			nil, "", "żywienie", "Zdrowe Serce",
			"https://partners.example.com/%C5%BCywienie/NEWTOKEN01/zdrowe-serce",
			"NEWTOKEN01", 1,
		},
		{
			"category with a space is escaped",
			nil, "zdrowe nawyki", "", "Title",
			"https://partners.example.com/zdrowe%20nawyki/NEWTOKEN01/title",
			"NEWTOKEN01", 1,
		},
		{
			"token kept from an escaped address",
			ptr("https://partners.example.com/%C5%BCywienie/keepTok001/old"), "żywienie", "sport", "Title",
			"https://partners.example.com/sport/keepTok001/title",
			"keepTok001", 0,
		},
		{
			"empty address gets a new token",
			ptr(""), "", "", "Title",
			"https://partners.example.com/p/NEWTOKEN01/title",
			"NEWTOKEN01", 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minter := &seqMinter{tokens: []string{"NEWTOKEN01"}}
			allocator := NewAllocator(minter, "p", "strona")

			addr, err := allocator.Allocate(
				context.Background(),
				tt.currentURL,
				tt.currentCategory,
				tt.requestedCategory,
				tt.title,
				testOrigin,
			)

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if addr.URL != tt.expectedURL {
				t.Errorf("got url %q, want %q", addr.URL, tt.expectedURL)
			}

			if addr.Token != tt.expectedToken {
				t.Errorf("got token %q, want %q", addr.Token, tt.expectedToken)
			}

			if minter.calls != tt.expectedMints {
				t.Errorf("got %d mints, want %d", minter.calls, tt.expectedMints)
			}
		})
	}
}

func TestAllocateIsIdempotentOnToken(t *testing.T) {

	allocator := NewAllocator(&seqMinter{tokens: []string{"first", "second"}}, "p", "strona")
	current := ptr("https://partners.example.com/p/stableTok1/some-title")

	first, err := allocator.Allocate(context.Background(), current, "p", "omega", "One", testOrigin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := allocator.Allocate(context.Background(), current, "p", "sport", "Two", testOrigin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Token != "stableTok1" || second.Token != "stableTok1" {
		t.Errorf("got tokens %q and %q, want both %q", first.Token, second.Token, "stableTok1")
	}

	if !strings.Contains(second.URL, "/sport/stableTok1/two") {
		t.Errorf("got url %q, want it to carry /sport/stableTok1/two", second.URL)
	}
}

func TestAllocateMintError(t *testing.T) {
	allocator := NewAllocator(&seqMinter{err: errors.New("boom")}, "p", "strona")
	_, err := allocator.Allocate(context.Background(), nil, "", "", "", testOrigin)
	if err == nil {
		t.Error("got nil error, want minting error")
	}
}

func TestExtractToken(t *testing.T) {

	tests := []struct {
		name     string
		address  *string
		expected string
		ok       bool
	}{
		{"nil", nil, "", false},
		{"empty", ptr(""), "", false},
		{"absolute", ptr("https://h/p/tok/slug"), "tok", true},
		{"relative", ptr("/p/tok/slug"), "tok", true},
		{"trailing slash", ptr("https://h/p/tok/slug/"), "tok", true},
		{"two segments", ptr("https://h/tok/slug"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractToken(tt.address)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("got (%q, %t), want (%q, %t)", got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestAddressPath(t *testing.T) {

	tests := []struct {
		category string
		token    string
		expected string
	}{
		{"omega", "Tok0000001", "/omega/Tok0000001"},
		{"żywienie", "Tok0000001", "/%C5%BCywienie/Tok0000001"},
		{"zdrowe nawyki", "Tok0000001", "/zdrowe%20nawyki/Tok0000001"},
		{"a/b", "Tok0000001", "/a%2Fb/Tok0000001"},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			if got := AddressPath(tt.category, tt.token); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
