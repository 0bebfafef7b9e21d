package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/config"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/drivers/rdb"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/utils"

	"google.golang.org/genai"
)

// Gemini service
type Service struct {
	config  *config.Config
	gemini  *genai.Client
	limiter *Limiter
}

// Fields the model is asked to rewrite
var suggestFields = []string{
	models.FieldHeroHeadline,
	"pagecontent_hero_subheadline",
	"pagecontent_hero_description",
	"pagecontent_hero_buttonText",
	"pagecontent_benefits_title",
	"pagecontent_benefits_items_0_title",
	"pagecontent_benefits_items_0_text",
	"pagecontent_benefits_items_1_title",
	"pagecontent_benefits_items_1_text",
	"pagecontent_benefits_items_2_title",
	"pagecontent_benefits_items_2_text",
	"pagecontent_faq_items_0_question",
	"pagecontent_faq_items_0_answer",
	"pagecontent_faq_items_1_question",
	"pagecontent_faq_items_1_answer",
}

// JSON schema of the response, one string per suggested field
var schema = func() *genai.Schema {
	props := make(map[string]*genai.Schema, len(suggestFields))
	for _, field := range suggestFields {
		props[field] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   []string{models.FieldHeroHeadline},
	}
}()

var retryConfig = utils.RetryConfig{
	MaxRetries: 3,
	MaxJitter:  time.Second,
	Delay:      2 * time.Second,
	Permanent:  isPermanent,
	RetryAfter: retryAfter,
}

// Create new Gemini service
func New(ctx context.Context, cfg *config.Config, rdb *rdb.Service) (*Service, error) {

	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("no Gemini API key configured")
	}

	limiter, err := NewLimiter(cfg, rdb)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})

	if err != nil {
		return nil, err
	}

	return &Service{config: cfg, gemini: client, limiter: limiter}, nil
}

// SuggestCopy asks the model for fresh landing page copy.
// The result is plain text keyed by field name and is never persisted here.
func (s *Service) SuggestCopy(ctx context.Context, page *models.Page) (map[string]string, error) {

	if err := s.limiter.AcquireQuota(ctx); err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		genai.NewContentFromText(buildPrompt(page), genai.RoleUser),
	}

	rc := retryConfig
	rc.Name = "suggest copy for page " + page.ID
	return utils.Retry(ctx, &rc, func() (map[string]string, error) {
		return s.generate(ctx, contents)
	})
}

func (s *Service) generate(ctx context.Context, contents []*genai.Content) (map[string]string, error) {

	result, err := s.gemini.Models.GenerateContent(
		ctx,
		s.config.GeminiModel,
		contents,
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	)

	if err != nil {
		return nil, err
	}

	if len(result.Candidates) == 0 {
		return nil, &BlockedErr{Feedback: result.PromptFeedback}
	}

	return parseSuggestions(result.Text())
}

// buildPrompt describes the page from its current copy
func buildPrompt(page *models.Page) string {

	var b strings.Builder
	b.WriteString(
		"Jesteś copywriterem stron sprzedażowych e-booków o zdrowiu. " +
			"Napisz nowe, zwięzłe teksty po polsku dla poniższej strony. " +
			"Zwróć wyłącznie czysty tekst bez HTML i bez Markdown.\n\n",
	)

	for _, field := range append([]string{models.FieldTitle}, suggestFields...) {
		if v := strings.TrimSpace(page.Fields[field]); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", field, v)
		}
	}

	if page.Category != "" {
		fmt.Fprintf(&b, "category: %s\n", page.Category)
	}

	return b.String()
}
