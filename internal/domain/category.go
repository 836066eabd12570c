package domain

// Category is the closed set of article classifications. The classifier is
// prompted with exactly these labels; anything else degrades to CategoryOther.
type Category string

const (
	CategoryAIML           Category = "AI/ML"
	CategoryStartup        Category = "Startup"
	CategorySecurity       Category = "Security"
	CategoryDevelopment    Category = "Development"
	CategoryInfrastructure Category = "Infrastructure"
	CategoryData           Category = "Data"
	CategoryOther          Category = "Other"
)

type categorySpec struct {
	category Category
	emoji    string
}

// Ordered so that prompt listings and CLI output are stable.
var categorySpecs = []categorySpec{
	{CategoryAIML, "🤖"},
	{CategoryStartup, "💼"},
	{CategorySecurity, "🔒"},
	{CategoryDevelopment, "💻"},
	{CategoryInfrastructure, "🏗️"},
	{CategoryData, "📊"},
	{CategoryOther, "📚"},
}

// Categories returns every known category in display order.
func Categories() []Category {
	out := make([]Category, 0, len(categorySpecs))
	for _, spec := range categorySpecs {
		out = append(out, spec.category)
	}
	return out
}

// ParseCategory maps a free-form classifier label onto the closed set.
func ParseCategory(raw string) Category {
	for _, spec := range categorySpecs {
		if string(spec.category) == raw {
			return spec.category
		}
	}
	return CategoryOther
}

// Emoji returns the display decoration for the category; unknown categories
// share the CategoryOther decoration.
func (c Category) Emoji() string {
	for _, spec := range categorySpecs {
		if spec.category == c {
			return spec.emoji
		}
	}
	return "📚"
}
