package models

// Page-level attributes. Each one is a column of the pages table.
const (
	FieldStatus   = "status"
	FieldCategory = "category"
	FieldColor    = "color"
	FieldURL      = "url"

	FieldTitle        = "x_amz_meta_title"
	FieldSourceKey    = "s3_file_key"
	FieldHeroHeadline = "pagecontent_hero_headline"
)

// ContentFields lists the content columns of a landing page,
// in the order they are selected from the database.
var ContentFields = []string{
	FieldTitle,
	FieldSourceKey,

	// Hero
	FieldHeroHeadline,
	"pagecontent_hero_subheadline",
	"pagecontent_hero_description",
	"pagecontent_hero_buttonText",

	// Benefits
	"pagecontent_benefits_title",
	"pagecontent_benefits_items_0_title",
	"pagecontent_benefits_items_0_text",
	"pagecontent_benefits_items_1_title",
	"pagecontent_benefits_items_1_text",
	"pagecontent_benefits_items_2_title",
	"pagecontent_benefits_items_2_text",
	"pagecontent_benefits_items_3_title",
	"pagecontent_benefits_items_3_text",

	// Testimonials
	"pagecontent_testimonials_title",
	"pagecontent_testimonials_items_0_text",
	"pagecontent_testimonials_items_0_author",
	"pagecontent_testimonials_items_0_role",
	"pagecontent_testimonials_items_1_text",
	"pagecontent_testimonials_items_1_author",
	"pagecontent_testimonials_items_1_role",
	"pagecontent_testimonials_items_2_text",
	"pagecontent_testimonials_items_2_author",
	"pagecontent_testimonials_items_2_role",

	// Content chapters
	"pagecontent_content_title",
	"pagecontent_content_chapters_0_number",
	"pagecontent_content_chapters_0_title",
	"pagecontent_content_chapters_0_description",
	"pagecontent_content_chapters_1_number",
	"pagecontent_content_chapters_1_title",
	"pagecontent_content_chapters_1_description",
	"pagecontent_content_chapters_2_number",
	"pagecontent_content_chapters_2_title",
	"pagecontent_content_chapters_2_description",

	// Form
	"pagecontent_form_title",
	"pagecontent_form_subtitle",
	"pagecontent_form_namePlaceholder",
	"pagecontent_form_emailPlaceholder",
	"pagecontent_form_phonePlaceholder",
	"pagecontent_form_buttonText",
	"pagecontent_form_privacyText",

	// Guarantees
	"pagecontent_guarantees_items_0_text",
	"pagecontent_guarantees_items_1_text",
	"pagecontent_guarantees_items_2_text",

	// FAQ
	"pagecontent_faq_title",
	"pagecontent_faq_items_0_question",
	"pagecontent_faq_items_0_answer",
	"pagecontent_faq_items_1_question",
	"pagecontent_faq_items_1_answer",
	"pagecontent_faq_items_2_question",
	"pagecontent_faq_items_2_answer",
}

// IsContentField reports whether name is one of the content columns
func IsContentField(name string) bool {
	_, ok := contentFieldSet[name]
	return ok
}

var contentFieldSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(ContentFields))
	for _, f := range ContentFields {
		set[f] = struct{}{}
	}
	return set
}()
