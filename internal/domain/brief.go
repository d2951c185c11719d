package domain

import "strings"

type Category string

const (
	CategoryFashion            Category = "fashion"
	CategoryElectronics        Category = "electronics"
	CategoryFoodBeverage       Category = "food_beverage"
	CategoryHomeGarden         Category = "home_garden"
	CategoryBeautyPersonalCare Category = "beauty_personal_care"
	CategorySportsOutdoors     Category = "sports_outdoors"
	CategoryAutomotive         Category = "automotive"
	CategoryBooksMedia         Category = "books_media"
	CategoryToysGames          Category = "toys_games"
	CategoryServices           Category = "services"
	CategoryOther              Category = "other"
)

var knownCategories = []Category{
	CategoryFashion,
	CategoryElectronics,
	CategoryFoodBeverage,
	CategoryHomeGarden,
	CategoryBeautyPersonalCare,
	CategorySportsOutdoors,
	CategoryAutomotive,
	CategoryBooksMedia,
	CategoryToysGames,
	CategoryServices,
	CategoryOther,
}

// categoryAliases maps free-form labels a vision service tends to return onto
// the fixed category set.
var categoryAliases = []struct {
	category Category
	words    []string
}{
	{CategoryFashion, []string{"fashion", "clothing", "apparel", "shirt", "dress", "shoe", "footwear", "sneaker", "bag", "jewel", "accessor"}},
	{CategoryElectronics, []string{"electronic", "phone", "laptop", "camera", "tech", "gadget", "headphone"}},
	{CategoryFoodBeverage, []string{"food", "drink", "beverage", "coffee", "snack", "cake", "tea"}},
	{CategoryHomeGarden, []string{"home", "furniture", "decor", "kitchen", "garden"}},
	{CategoryBeautyPersonalCare, []string{"beauty", "cosmetic", "skincare", "makeup", "personal care", "fragrance"}},
	{CategorySportsOutdoors, []string{"sport", "fitness", "outdoor", "gym", "athletic"}},
	{CategoryAutomotive, []string{"car", "auto", "vehicle"}},
	{CategoryBooksMedia, []string{"book", "media", "music", "movie"}},
	{CategoryToysGames, []string{"toy", "game"}},
	{CategoryServices, []string{"service", "consulting"}},
}

// NormalizeCategory maps a raw category label onto the fixed set. Unknown
// labels become CategoryOther.
func NormalizeCategory(raw string) Category {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return CategoryOther
	}
	for _, known := range knownCategories {
		if label == string(known) {
			return known
		}
	}
	for _, alias := range categoryAliases {
		for _, word := range alias.words {
			if strings.Contains(label, word) {
				return alias.category
			}
		}
	}
	return CategoryOther
}

// ProductBrief is the normalized analysis of the uploaded photo. It is built
// once and never mutated; use Clone when handing it to concurrent readers.
type ProductBrief struct {
	Label            string
	Category         Category
	Colors           []string
	StyleDescriptors []string
	Features         []string
	Confidence       float64
	Raw              string
}

func (b ProductBrief) Clone() ProductBrief {
	clone := b
	clone.Colors = append([]string(nil), b.Colors...)
	clone.StyleDescriptors = append([]string(nil), b.StyleDescriptors...)
	clone.Features = append([]string(nil), b.Features...)
	return clone
}

// Subject is the short product description used in prompts.
func (b ProductBrief) Subject() string {
	if len(b.Features) > 0 {
		return strings.Join(b.Features, ", ")
	}
	if b.Label != "" {
		return b.Label
	}
	return strings.ReplaceAll(string(b.Category), "_", " ") + " product"
}
