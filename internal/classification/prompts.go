package classification

import (
	"fmt"
	"strings"

	"itemsclassification/internal/taxonomy"
)

const (
	choosePhrase   = "Choose the most specific category that matches."
	noUnspecified  = " DO NOT use 'Unspecified' - you must select one of the specific categories listed."
	preferSpecific = "\n\nNote: Only use 'Unspecified' if none of the specific categories above match. Prefer specific categories when possible."
)

// unspecifiedNote tells the model whether Unspecified is an option for a
// level whose parent is parentLevel.
func unspecifiedNote(values []string, parentLevel, level string) string {
	if taxonomy.Contains(values, taxonomy.Unspecified) {
		return preferSpecific
	}
	if len(values) == 0 {
		return ""
	}
	return fmt.Sprintf("\n\nIMPORTANT: You must select one of the specific categories listed above. 'Unspecified' is NOT available for this %v category - you must choose a specific %v category.", parentLevel, level)
}

func mainSystemPrompt(values []string) string {
	note := ""
	if taxonomy.Contains(values, taxonomy.Unspecified) {
		note = preferSpecific
	}

	return fmt.Sprintf(`Classify into ONE main category. Return ONLY valid JSON, no other text.

Valid main categories: %v%v

Return JSON format: {"main": "category_name"}

You MUST select from the list above. %v`, strings.Join(values, ", "), note, choosePhrase)
}

func subSystemPrompt(main string, values []string) string {
	return fmt.Sprintf(`Main category: %v. Classify into ONE sub category. Return ONLY valid JSON, no other text.

Valid sub categories for "%v": %v%v

Return JSON format: {"sub": "category_name"}

You MUST select from the list above. %v`, main, main, strings.Join(values, ", "), unspecifiedNote(values, "main", "sub"), choosePhrase)
}

func detailSystemPrompt(main, sub string, values []string) string {
	return fmt.Sprintf(`Main: %v, Sub: %v. Classify into ONE detail category. Return ONLY valid JSON, no other text.

Valid detail categories for "%v": %v%v

Return JSON format: {"detail": "category_name"}

You MUST select from the list above. %v`, main, sub, sub, strings.Join(values, ", "), unspecifiedNote(values, "sub", "detail"), choosePhrase)
}

func level4SystemPrompt(main, sub, detail string, values []string) string {
	return fmt.Sprintf(`Main: %v, Sub: %v, Detail: %v. Classify into ONE level4 category. Return ONLY valid JSON, no other text.

Valid level4 categories: %v

Return JSON format: {"level4": "category_name"}

Select from the list above. Use "Unspecified" if unclear.`, main, sub, detail, strings.Join(values, ", "))
}

// insistOnSpecific rewrites a system prompt after the model answered
// Unspecified although specific categories were offered.
func insistOnSpecific(system string) string {
	return strings.Replace(system, choosePhrase, choosePhrase+noUnspecified, 1)
}

// userPrompt builds the user message for one level. prefix names the
// already classified parents, e.g. "Main: Furniture. ".
func userPrompt(prefix, task, key string, hasImage bool, details string) string {
	answer := fmt.Sprintf(`Return only JSON: {"%v": "category"}`, key)

	switch {
	case hasImage && details != "":
		return fmt.Sprintf("%v%v. Item details: %v. %v", prefix, task, details, answer)
	case hasImage:
		return fmt.Sprintf("%v%v. %v", prefix, task, answer)
	case details != "":
		return fmt.Sprintf("%v%v based on item details: %v. %v", prefix, task, details, answer)
	default:
		return fmt.Sprintf("%v%v. %v", prefix, task, answer)
	}
}

func mainUserPrompt(hasImage bool, details string) string {
	if hasImage {
		return userPrompt("", "Classify this image", "main", true, details)
	}
	if details != "" {
		return userPrompt("", "Classify", "main", false, details)
	}
	return `Classify. Return only JSON: {"main": "category"}`
}

func subUserPrompt(main string, hasImage bool, details string) string {
	return userPrompt(fmt.Sprintf("Main: %v. ", main), "Classify sub category", "sub", hasImage, details)
}

func detailUserPrompt(main, sub string, hasImage bool, details string) string {
	return userPrompt(fmt.Sprintf("Main: %v, Sub: %v. ", main, sub), "Classify detail category", "detail", hasImage, details)
}

func level4UserPrompt(hasImage bool, details string) string {
	return userPrompt("", "Classify level4 category", "level4", hasImage, details)
}
