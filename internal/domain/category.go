package domain

import "strings"

// Category is the closed set of buckets a saved link can land in.
type Category string

const (
	CategoryFitness  Category = "Fitness"
	CategoryCoding   Category = "Coding"
	CategoryTech     Category = "Tech"
	CategoryFood     Category = "Food"
	CategoryTravel   Category = "Travel"
	CategoryDesign   Category = "Design"
	CategoryBusiness Category = "Business"
	CategoryGaming   Category = "Gaming"
	CategoryOther    Category = "Other"
)

// Categories lists every valid category in enumeration order. The order
// matters: keyword scoring breaks ties by first match in this slice.
var Categories = []Category{
	CategoryFitness,
	CategoryCoding,
	CategoryTech,
	CategoryFood,
	CategoryTravel,
	CategoryDesign,
	CategoryBusiness,
	CategoryGaming,
	CategoryOther,
}

// ParseCategory maps arbitrary input to a valid category, falling back to
// Other for anything outside the closed set.
func ParseCategory(s string) Category {
	trimmed := strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(trimmed, string(c)) {
			return c
		}
	}
	return CategoryOther
}

// Platform identifies which scraper strategy applies to a URL.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformYouTube   Platform = "youtube"
	PlatformBlog      Platform = "blog"

	// PlatformUnknown means the input was not URL-shaped at all; the
	// pipeline refuses it without attempting a scrape.
	PlatformUnknown Platform = ""
)
