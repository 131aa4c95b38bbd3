package colors

import (
	"fmt"
	"strings"
)

type colorGroup struct {
	name   string
	colors []string
}

// colorFamilies orders the detail colors by family in the prompts.
var colorFamilies = []colorGroup{
	{"Neutrals", []string{"White", "Off-white", "Light grey", "Grey", "Dark grey", "Graphite", "Anthracite", "Black"}},
	{"Beige/Brown", []string{"Ecru", "Light beige", "Beige", "Greige", "Taupe", "Camel", "Caramel", "Brown", "Dark brown", "Terracotta", "Cognac", "Rust brown"}},
	{"Red", []string{"Red", "Dark red", "Christmas red", "Coral red", "Carmine red", "Burgundy", "Marsala", "Neon Red"}},
	{"Blue", []string{"Light blue", "Blue", "Dark blue", "Grey blue", "Cobalt blue", "Azure blue", "Turquoise", "Petrol", "Neon Blue"}},
	{"Yellow", []string{"Light yellow", "Yellow", "Warm yellow", "Mustard yellow", "Ocher yellow", "Neon Yellow"}},
	{"Green", []string{"Light green", "Green", "Dark green", "Grey-green", "Moss green", "Olive", "Khaki green", "Mint green", "Emerald green", "Neon Green"}},
	{"Purple", []string{"Light purple", "Purple", "Dark purple", "Lilac", "Lavender", "Mauve", "Violet", "Eggplant", "Neon Purple"}},
	{"Orange", []string{"Light orange", "Orange", "Dark orange", "Peach", "Apricot", "Neon Orange"}},
	{"Pink", []string{"Light pink", "Pink", "Dark pink", "Old pink", "Salmon pink", "Fuchsia", "Neon Pink"}},
	{"Metallic", []string{"Gold", "Champagne", "Silver", "Bronze", "Copper", "Brass", "Rose gold"}},
	{"Special", []string{"Natural", "Transparent"}},
}

// groupedColors lists colors by family. Family members missing from colors
// are left out and colors of no family are listed under Other.
func groupedColors(colors []string) string {
	remaining := make(map[string]bool, len(colors))
	for _, c := range colors {
		remaining[c] = true
	}

	var lines []string
	add := func(name string, members []string) {
		if len(members) > 0 {
			lines = append(lines, fmt.Sprintf("  %v: %v", name, strings.Join(members, ", ")))
		}
	}

	for _, g := range colorFamilies {
		var members []string
		for _, c := range g.colors {
			if remaining[c] {
				members = append(members, c)
				delete(remaining, c)
			}
		}
		add(g.name, members)
	}

	var other []string
	for _, c := range colors {
		if remaining[c] {
			other = append(other, c)
		}
	}
	add("Other", other)

	return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

const noDescription = "No description available."

func describeSystemPrompt(hints string) string {
	return `You are a color analysis expert for home, furniture, and decorative products.

TASK:
Analyze the provided product image and produce a compact color-focused description.

CRITICAL - IGNORE THE BACKGROUND:
- Product photos typically have a WHITE or GREY studio background. This is NOT part of the product.
- Do NOT include the background color, floor, wall, table surface, or shadows in your analysis.
- Only describe colors that are physically part of the product itself.

INSTRUCTIONS:
1. List the dominant colors visible ON THE PRODUCT ITSELF, in order of visual prominence.
2. Mention material finishes that influence perceived color (glossy, matte, metallic, transparent, wooden).
3. Note any patterns, gradients, or multi-color aspects.
4. Estimate the total number of DISTINCT colors on the product.
5. For colored glass (green glass, amber glass, blue glass), describe the glass COLOR, not "transparent".
6. Keep the description under 80 words.

COLOR-COUNTING RULES (be conservative):
- Shades of the same hue = 1 color (light brown + dark brown = 1; gold + copper tones on one metallic item = 1).
- Wood grain variation, stone veins, and metallic sheen on a single base = 1 color, NOT multiple.
- Natural wood/rattan/wicker/bamboo/jute = 1 color ("natural wood tone").
- Only count 2+ when there are CLEARLY DIFFERENT hues (e.g. blue AND red, or black AND gold).
- A white/grey studio background is NOT a product color - never count it.
` + hints + `
Respond with ONLY a single JSON object. No markdown, no code blocks, no explanation.
{"description": "...", "estimated_color_count": N}`
}

func describeUserPrompt(hasImage bool) string {
	if hasImage {
		return `Analyze ONLY THE PRODUCT in the image (ignore white/grey background). Describe its colors and estimate distinct color count. Return ONLY JSON: {"description": "...", "estimated_color_count": N}`
	}
	return `No image provided. Return: {"description": "No image available for color analysis", "estimated_color_count": 0}`
}

func primarySystemPrompt(description, hints, allowed string) string {
	return `You are a product color classification expert for a home & garden catalog.

TASK: Select the single most dominant color of the product from the allowed list below.

CRITICAL - BACKGROUND IS NOT THE PRODUCT:
- The white or grey area behind/around the product is a STUDIO BACKGROUND - ignore it completely.
- Only classify the color of the PRODUCT ITSELF, not the background, floor, table, or shadows.
- If the product looks white, confirm it is actually the product surface, not just background showing through.

COLOR DESCRIPTION FROM PREVIOUS STEP:
` + orDefault(description, noDescription) + `

ALLOWED DETAIL COLORS (grouped by family):
` + allowed + `

IMPORTANT RULES:
1. Pick EXACTLY ONE color from the list above. Never invent new color names.
2. Choose the color covering the LARGEST visible area of the product surface.
3. For unpainted wood, wicker, rattan, jute, or seagrass products, use "Natural".
4. For colored glass or colored transparent plastic (e.g. green glass vase, amber bottle), use the GLASS COLOR (Green, Turquoise, Orange, etc.), NOT "Transparent". Only use "Transparent" for truly clear/colorless glass.
5. For metallic finishes: use Gold, Silver, Bronze, Copper, Brass, or Rose gold.
6. NEUTRAL DISAMBIGUATION - distinguish carefully:
   - "Natural" = unpainted wood, wicker, rattan, bamboo, jute, seagrass, cane, cork
   - "Beige" = warm tan fabric, ceramic, sandstone, linen-colored textile
   - "Off-white" = slightly warm white, cream, ivory, bone-colored ceramic
   - "Ecru" = raw/unbleached fabric tone, yellowish off-white
   - "Brown" = painted/stained dark wood, dark leather, chocolate-toned
   - "Dark brown" = very dark stained wood, espresso, walnut-stained
   - "Camel" = light warm brown, caramel-toned leather or suede
   - "Taupe" = grey-brown, cool-toned mid neutral
7. If the product description explicitly mentions a color and it matches the allowed list, prefer it.
` + hints + `
EXAMPLES:
- Rattan basket -> {"detail_color": "Natural", "confidence": 0.95, "reasoning": "unpainted rattan weave"}
- Mango wood side table -> {"detail_color": "Natural", "confidence": 0.93, "reasoning": "unpainted mango wood"}
- White ceramic plate with gold rim -> {"detail_color": "White", "confidence": 0.90, "reasoning": "white ceramic is dominant surface"}
- Green glass vase -> {"detail_color": "Green", "confidence": 0.90, "reasoning": "colored green glass"}
- Beige linen cushion -> {"detail_color": "Beige", "confidence": 0.85, "reasoning": "beige fabric"}
- Cream ceramic pot -> {"detail_color": "Off-white", "confidence": 0.85, "reasoning": "cream/ivory ceramic"}
- Dark stained wooden shelf -> {"detail_color": "Dark brown", "confidence": 0.85, "reasoning": "dark stained wood"}
- Light brown suede pouf -> {"detail_color": "Camel", "confidence": 0.85, "reasoning": "light warm brown suede"}
- Jute rug -> {"detail_color": "Natural", "confidence": 0.93, "reasoning": "natural jute fiber"}
- Grey-brown stone vase -> {"detail_color": "Taupe", "confidence": 0.80, "reasoning": "grey-brown stone"}

Respond with ONLY a single JSON object. No markdown, no code blocks, no explanation.
{"detail_color": "ColorName", "confidence": 0.85, "reasoning": "brief reason"}`
}

func primaryUserPrompt(hasImage bool) string {
	if hasImage {
		return "Look at the PRODUCT in the image (ignore the white/grey studio background). Select its single most dominant color from the allowed list. Return ONLY JSON."
	}
	return "Select the most likely dominant color based on the description. Return ONLY JSON."
}

func multiGateSystemPrompt(description string, estimated int, primary, hints string) string {
	return fmt.Sprintf(`You are a product color classification expert. Your ONLY job is to decide:
Does this product have 4 or more TRULY DISTINCT, prominent colors?

COLOR DESCRIPTION: %v
ESTIMATED COLOR COUNT: %v
PRIMARY COLOR: %v

ANSWER is_multi=true ONLY when:
- The product is genuinely multicolored - patchwork, rainbow, multi-stripe, printed pattern with 4+ distinct hues.
- Each color covers a meaningful area of the product (not tiny accents).

ANSWER is_multi=false for ALL of these (common traps):
- 1-3 color products, even with small accents or trims
- Gold/copper/bronze tonal variation on one metallic item (1 metallic color)
- Wood grain, stone veins, or wicker texture variation (1 natural color)
- A product with a different-color lid, handle, or base (2-3 colors, NOT multi)
- Studio background (white/grey) creating an illusion of extra colors
- Estimated color count of 3 or less

IMPORTANT: Most products are NOT multi. When in doubt, answer false.
%v
Respond with ONLY a JSON object:
{"is_multi": false, "reasoning": "brief reason"}`, orDefault(description, noDescription), estimated, orDefault(primary, "unknown"), hints)
}

func multiGateUserPrompt(hasImage bool) string {
	if hasImage {
		return "Look at the product image. Is this product genuinely multicolored (4+ distinct prominent colors)? Return ONLY JSON."
	}
	return "Based on the description, is this product multicolored? Return ONLY JSON."
}

func neutralSystemPrompt(current, description, hints string) string {
	return fmt.Sprintf(`You are a neutral-color specialist for a home & garden product catalog.

The primary color classifier picked: "%v"
Color description: %v

Your job: VERIFY or CORRECT this choice using ONLY the neutral/brown palette below.
Pick the SINGLE BEST match for the product's dominant surface color.

NEUTRAL OPTIONS (pick exactly one):
- "Natural" - unpainted wood, wicker, rattan, bamboo, jute, seagrass, cane, cork. The raw material is visible with no paint or stain.
- "Off-white" - cream, ivory, warm white. Slightly tinted white surfaces (ceramic, fabric, paint).
- "Ecru" - raw unbleached fabric, yellowish off-white linen/cotton.
- "Light beige" - very pale warm tan, lighter than beige.
- "Beige" - warm tan fabric, ceramic, sandstone, linen-colored textile.
- "Greige" - grey-beige blend, modern warm grey.
- "Taupe" - grey-brown, cool-toned mid neutral, stone-colored.
- "Camel" - light warm brown, caramel-toned leather or suede.
- "Caramel" - warm amber-brown, honey-toned.
- "Brown" - medium brown painted/stained wood, leather, fabric.
- "Dark brown" - very dark stained wood, espresso, walnut, dark leather.

KEY DECISION RULES:
1. If you can see raw wood grain, wicker weave, or natural fibers with NO paint/stain -> "Natural"
2. If the surface is painted/glazed/coated even if in a wood-like tone -> NOT Natural (use Beige/Brown/etc.)
3. Materials hint: if materials say MANGO WOOD, RATTAN, BAMBOO, JUTE etc. -> strongly favor "Natural"
4. Cream/ivory ceramic or fabric -> "Off-white"
5. Sandy/tan fabric or ceramic -> "Beige"
6. Light warm brown leather/suede -> "Camel"
7. Dark stained/painted wood -> "Brown" or "Dark brown"
%v
Respond with ONLY a JSON object:
{"detail_color": "ColorName", "confidence": 0.85, "reasoning": "brief reason"}`, orDefault(current, "unknown"), orDefault(description, noDescription), hints)
}

func neutralUserPrompt(current string, hasImage bool) string {
	if hasImage {
		return fmt.Sprintf(`Look at the product image carefully. The initial pick was "%v". Is that correct, or should it be a different neutral shade? Return ONLY JSON.`, current)
	}
	return fmt.Sprintf(`Verify the neutral color "%v" based on the description. Return ONLY JSON.`, current)
}

func secondarySystemPrompt(description, primary, hints, allowed string) string {
	primary = orDefault(primary, "unknown")

	return `You are a product color classification expert for a home & garden catalog.

TASK: Determine if the product has additional colors beyond the primary color.
The product is NOT multicolored - that was already checked. Focus only on finding 0, 1, or 2 secondary colors.

CRITICAL - BACKGROUND IS NOT THE PRODUCT:
- The white or grey area around the product is a STUDIO BACKGROUND - do NOT count it as a product color.
- Shadows, reflections on the background, and the surface the product sits on are NOT product colors.

COLOR DESCRIPTION:
` + orDefault(description, noDescription) + `

PRIMARY COLOR ALREADY ASSIGNED: ` + primary + `

ALLOWED DETAIL COLORS (grouped by family):
` + allowed + `

RULES:
1. Only add a secondary color if it covers a SIGNIFICANT visible area of the product (roughly >15% of product surface).
2. Do NOT count the studio background (white/grey) as a product color.
3. Do NOT count shades of the same hue as separate colors (light brown trim on brown product = still one color).
4. Do NOT repeat the primary color "` + primary + `".
5. Small accents, logos, labels, textures, and shadows do NOT count as separate colors.
6. For colored glass, the glass color is the product color, not "Transparent".
7. Colors must be from the allowed list.
` + hints + `
EXAMPLES:
- Single-color brown table -> {"detail_color_2": null, "confidence_2": null, "reasoning_2": null, "detail_color_3": null, "confidence_3": null, "reasoning_3": null}
- White vase with gold rim -> {"detail_color_2": "Gold", "confidence_2": 0.85, "reasoning_2": "gold metallic rim is significant accent", "detail_color_3": null, "confidence_3": null, "reasoning_3": null}
- Natural wood tray with iron handles -> {"detail_color_2": "Black", "confidence_2": 0.80, "reasoning_2": "black iron handles", "detail_color_3": null, "confidence_3": null, "reasoning_3": null}

Respond with ONLY a single JSON object. No markdown, no code blocks, no explanation.
{"detail_color_2": "ColorName or null", "confidence_2": 0.8, "reasoning_2": "reason", "detail_color_3": "ColorName or null", "confidence_3": 0.7, "reasoning_3": "reason"}`
}

func secondaryUserPrompt(hasImage bool) string {
	if hasImage {
		return "Look at the PRODUCT in the image (ignore white/grey studio background). Are there significant secondary colors beyond the primary? Return ONLY JSON."
	}
	return "Determine secondary colors based on the description. Return ONLY JSON."
}
