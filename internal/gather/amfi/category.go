package amfi

import (
	"strings"

	"github.com/dustin/go-humanize"

	"saarthi/internal/domain"
)

type categoryRule struct {
	category domain.Category
	needles  []string
}

// categoryRules are evaluated in order against the lowercased name; the
// first rule with a matching substring wins.
var categoryRules = []categoryRule{
	{domain.CategoryELSS, []string{"elss", "tax saver"}},
	{domain.CategoryFlexiCap, []string{"flexi cap"}},
	{domain.CategoryLargeCap, []string{"large cap", "bluechip", "blue chip"}},
	{domain.CategoryMidCap, []string{"mid cap", "midcap"}},
	{domain.CategorySmallCap, []string{"small cap", "smallcap"}},
	{domain.CategoryIndex, []string{"index"}},
	{domain.CategoryFundOfFunds, []string{"fof", "fund of funds"}},
	{domain.CategoryLiquid, []string{"liquid"}},
	{domain.CategoryHybrid, []string{"balanced", "hybrid", "advantage"}},
	{domain.CategoryDebt, []string{"debt", "bond"}},
	{domain.CategoryMoneyMarket, []string{"money market"}},
	{domain.CategorySectoral, []string{
		"infrastructure", "banking", "technology", "healthcare", "defence",
		"psu", "manufacturing", "pharma", "auto", "energy",
	}},
}

// Classify derives a fund's category from its name.
func Classify(name string) domain.Category {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.category
			}
		}
	}
	return domain.CategoryOther
}

// aumCrore is a cosmetic per-category size estimate in crore rupees.
var aumCrore = map[domain.Category]int64{
	domain.CategoryLargeCap:    15000,
	domain.CategoryMidCap:      8000,
	domain.CategorySmallCap:    5000,
	domain.CategoryFlexiCap:    12000,
	domain.CategoryELSS:        6000,
	domain.CategoryIndex:       10000,
	domain.CategorySectoral:    4000,
	domain.CategoryHybrid:      8000,
	domain.CategoryLiquid:      20000,
	domain.CategoryMoneyMarket: 15000,
	domain.CategoryDebt:        5000,
	domain.CategoryFundOfFunds: 3000,
	domain.CategoryOther:       2000,
}

// EstimatedAUM returns the display string for a category, e.g. "₹15,000 Cr".
func EstimatedAUM(c domain.Category) string {
	crore, ok := aumCrore[c]
	if !ok {
		crore = aumCrore[domain.CategoryOther]
	}
	return "₹" + humanize.Comma(crore) + " Cr"
}
