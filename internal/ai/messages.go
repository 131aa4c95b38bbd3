package ai

import (
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Some models reject system messages outright.
var noSystemMessageModels = []string{"gemma", "gemini"}

func supportsSystemMessages(modelName string) bool {
	name := strings.ToLower(modelName)
	for _, m := range noSystemMessageModels {
		if strings.Contains(name, m) {
			return false
		}
	}
	return true
}

// NormalizeImage turns image data into something the chat API accepts as an
// image URL. http(s) URLs and data URIs pass through, anything else is
// treated as raw base64 JPEG data.
func NormalizeImage(image string) string {
	if image == "" {
		return ""
	}

	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") || strings.HasPrefix(image, "data:image") {
		return image
	}

	return "data:image/jpeg;base64," + image
}

// BuildMessages builds the conversation for one request. For models without
// system message support the system prompt is prepended to the user prompt.
func BuildMessages(system, user, image, modelName string) []llms.MessageContent {
	var messages []llms.MessageContent

	prompt := user
	if system != "" {
		if supportsSystemMessages(modelName) {
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
		} else {
			prompt = system + "\n\n" + user
		}
	}

	parts := []llms.ContentPart{llms.TextPart(prompt)}
	if image != "" {
		parts = append(parts, llms.ImageURLPart(NormalizeImage(image)))
	}

	return append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: parts,
	})
}
