package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/xeipuuv/gojsonschema"
)

// ImageDescription is a short structured description of a product photo.
type ImageDescription struct {
	Look           string `json:"look"`
	PotentialUsage string `json:"potential_usage"`
	Materials      string `json:"materials"`
}

func (d ImageDescription) String() string {
	return fmt.Sprintf("Look: %v. Usage: %v. Materials: %v", d.Look, d.PotentialUsage, d.Materials)
}

var imageDescriptionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"look": map[string]any{
			"type":        "string",
			"description": "What does it look like?",
		},
		"potential_usage": map[string]any{
			"type":        "string",
			"description": "How people can use this item?",
		},
		"materials": map[string]any{
			"type":        "string",
			"description": "What is the item made from?",
		},
	},
	"required":             []string{"look", "potential_usage", "materials"},
	"additionalProperties": false,
}

var describeImageTool = llms.FunctionDefinition{
	Name:        "describe_image",
	Description: "Answer schema for image description",
	Parameters:  imageDescriptionSchema,
}

const describeImagePrompt = `You are a product catalogue assistant. Look at the product photo and describe the product.
Be concrete and brief: name the kind of object, its shape, colors and finish, how people would use it and what it is made from.
Answer by calling the describe_image function.`

// DescribeImage asks the model for a structured description of the image.
func DescribeImage(ctx context.Context, agent *Agent, image string) (*ImageDescription, error) {
	args, err := agent.InvokeTool(ctx, describeImagePrompt, image, describeImageTool)
	if err != nil {
		return nil, err
	}

	if err := ValidateJSON(imageDescriptionSchema, args); err != nil {
		return nil, err
	}

	var desc ImageDescription
	if err := json.Unmarshal([]byte(args), &desc); err != nil {
		return nil, err
	}

	return &desc, nil
}

// ValidateJSON checks raw against a JSON schema given as a Go value.
func ValidateJSON(schema any, raw string) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("validate model output: %w", err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return fmt.Errorf("model output does not match schema: %v", strings.Join(problems, "; "))
	}

	return nil
}
