package service

import "strings"

// categoryRule maps any of its substrings to a category label.
type categoryRule struct {
	label    string
	contains []string
}

// categoryRules are checked in order; the first hit wins, so "knife" beats "case".
var categoryRules = []categoryRule{
	{"Knives", []string{"knife", "karambit", "bayonet", "m9", "butterfly", "daggers"}},
	{"Gloves", []string{"gloves"}},
	{"Stickers", []string{"sticker"}},
	{"Cases", []string{"case"}},
	{"Rifles", []string{"ak-47", "ak47", "awp", "m4a1-s", "m4a4", "aug", "famas", "galil", "sg 553", "scar-20", "g3sg1"}},
	{"Pistols", []string{"usp", "glock", "p2000", "p250", "cz75", "tec-9", "deagle", "desert eagle", "dual berettas", "r8", "five-seven"}},
}

// OtherCategory is used when no rule matches.
const OtherCategory = "Others"

// Categorize derives an item's category from its name.
func Categorize(name string) string {
	n := strings.ToLower(name)
	for _, rule := range categoryRules {
		for _, s := range rule.contains {
			if strings.Contains(n, s) {
				return rule.label
			}
		}
	}
	return OtherCategory
}
