// Package openapi describes the HTTP API as an OpenAPI 3 document.
package openapi

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

const Title = "Items Classification API"

func jsonBody(schema *Schema) *RequestBody {
	return &RequestBody{
		Required: true,
		Content:  map[string]MediaType{"application/json": {Schema: schema}},
	}
}

func imageForm(fields map[string]*Schema) *RequestBody {
	properties := map[string]*Schema{
		"file":         {Type: "string", Format: "binary", Description: "Image file"},
		"image_url":    str("Public URL of the image"),
		"image_base64": str("Base64 image data, with or without a data URI prefix"),
	}
	for k, v := range fields {
		properties[k] = v
	}

	return &RequestBody{
		Description: "Exactly one of file, image_url or image_base64 is used, in that order.",
		Content: map[string]MediaType{
			"multipart/form-data":               {Schema: object(nil, properties)},
			"application/x-www-form-urlencoded": {Schema: object(nil, properties)},
		},
	}
}

func responds(description string, data *Schema) map[string]Response {
	envelope := object(nil, map[string]*Schema{
		"data":   data,
		"errors": arrayOf(ref("Error")),
	})

	return map[string]Response{
		"200": {
			Description: description,
			Content:     map[string]MediaType{"application/json": {Schema: envelope}},
		},
		"400": errorResponse("Invalid request"),
		"500": errorResponse("Internal error"),
	}
}

func errorResponse(description string) Response {
	return Response{
		Description: description,
		Content: map[string]MediaType{"application/json": {Schema: object(nil, map[string]*Schema{
			"errors": arrayOf(ref("Error")),
		})}},
	}
}

func taskStarted() *Schema {
	return object([]string{"message", "task_id"}, map[string]*Schema{
		"message": str(""),
		"task_id": {Type: "string", Format: "uuid"},
	})
}

func itemIDs() *Schema {
	return arrayOf(integer())
}

// Build returns the document for the API at version.
func Build(version string) *Document {
	zero, one := 0.0, 1.0

	schemas := map[string]*Schema{
		"Error": object([]string{"code", "message", "retryable"}, map[string]*Schema{
			"code":      str("Machine readable error code"),
			"message":   str(""),
			"details":   str(""),
			"retryable": boolean("Whether repeating the request later may succeed"),
		}),
		"Item": object([]string{"id", "origin_id", "supplier_reference_description"}, map[string]*Schema{
			"id":                             integer(),
			"origin_id":                      integer(),
			"season":                         str(""),
			"supplier_name":                  str(""),
			"supplier_reference_description": str(""),
			"materials":                      nullableStr(),
			"main":                           nullableStr(),
			"sub":                            nullableStr(),
			"detail":                         nullableStr(),
			"level4":                         nullableStr(),
			"colors":                         nullableStr(),
			"hs_code":                        nullableStr(),
			"created_at":                     {Type: "string", Format: "date-time"},
			"updated_at":                     {Type: "string", Format: "date-time"},
		}),
		"TaskStatus": object([]string{"task_uuid", "task", "status"}, map[string]*Schema{
			"task_uuid":  {Type: "string", Format: "uuid"},
			"task":       {Type: "string", Enum: []string{"create_reference_data", "classification", "color_recognition", "hs_code"}},
			"status":     {Type: "string", Enum: []string{"in_progress", "success", "error"}},
			"info":       nullableStr(),
			"updated_at": {Type: "string", Format: "date-time"},
		}),
		"ReferenceItem": object([]string{"item_id", "main"}, map[string]*Schema{
			"item_id":                        integer(),
			"season":                         str(""),
			"supplier_name":                  str(""),
			"supplier_reference_description": str(""),
			"materials":                      str(""),
			"image_description":              str(""),
			"main":                           str(""),
			"sub":                            str(""),
			"detail":                         str(""),
			"level4":                         str(""),
		}),
		"Step": object(nil, map[string]*Schema{
			"step":     str(""),
			"result":   str(""),
			"metadata": {Type: "object"},
		}),
		"Classification": object(nil, map[string]*Schema{
			"main":        str(""),
			"sub":         str(""),
			"detail":      str(""),
			"level4":      str(""),
			"is_complete": boolean("All four levels were classified"),
			"errors":      arrayOf(str("")),
			"history":     arrayOf(ref("Step")),
		}),
		"ColorConfidence": {
			Type:     "object",
			Nullable: true,
			Properties: map[string]*Schema{
				"detail_color_confidence": {Type: "number", Nullable: true, Minimum: &zero, Maximum: &one},
				"main_color_confidence":   {Type: "number", Nullable: true, Minimum: &zero, Maximum: &one},
				"reasoning":               str(""),
			},
		},
		"ColorDetection": object(nil, map[string]*Schema{
			"image_description":     str(""),
			"estimated_color_count": {Type: "integer"},
			"detail_color_1":        str(""),
			"detail_color_2":        str(""),
			"detail_color_3":        str(""),
			"main_color_1":          str(""),
			"main_color_2":          str(""),
			"main_color_3":          str(""),
			"is_multi":              boolean("The item has too many colors to name"),
			"confidence_1":          ref("ColorConfidence"),
			"confidence_2":          ref("ColorConfidence"),
			"confidence_3":          ref("ColorConfidence"),
			"errors":                arrayOf(str("")),
			"history":               arrayOf(ref("Step")),
		}),
		"HSCode": object([]string{"hs_code", "description", "confidence"}, map[string]*Schema{
			"hs_code":     {Type: "string", Description: "6 to 10 digit Harmonized System code"},
			"description": str(""),
			"confidence":  {Type: "number", Minimum: &zero, Maximum: &one},
		}),
	}

	itemFields := map[string]*Schema{
		"supplier_name":                  str(""),
		"supplier_reference_description": str(""),
		"materials":                      str("Materials composition, e.g. GLASS (80.00%)"),
	}

	health := object(nil, map[string]*Schema{"status": str(""), "service": str("")})

	paths := map[string]PathItem{
		"/": {Get: &Operation{
			Tags:      []string{"service"},
			Summary:   "Service information",
			Responses: responds("Service name, version and main endpoints", &Schema{Type: "object"}),
		}},
		"/health": {Get: &Operation{
			Tags:      []string{"service"},
			Summary:   "Reachability of the database, vector database and blob storage",
			Responses: responds("All dependencies are reachable", &Schema{Type: "object"}),
		}},
		"/get_status": {Post: &Operation{
			Tags:        []string{"tasks"},
			Summary:     "Status of background tasks",
			Description: "Returns every task, newest first, when task_id is omitted.",
			RequestBody: jsonBody(object(nil, map[string]*Schema{"task_id": {Type: "string", Format: "uuid"}})),
			Responses:   responds("Task statuses", object(nil, map[string]*Schema{"tasks": arrayOf(ref("TaskStatus"))})),
		}},
		"/get_items": {Post: &Operation{
			Tags:        []string{"items"},
			Summary:     "Items by origin id",
			RequestBody: jsonBody(itemIDs()),
			Responses:   responds("Found items", arrayOf(ref("Item"))),
		}},
		"/check_items": {Post: &Operation{
			Tags:        []string{"items"},
			Summary:     "Whether items exist in the database and have an image",
			RequestBody: jsonBody(itemIDs()),
			Responses: responds("Check results", object(nil, map[string]*Schema{
				"items": arrayOf(object(nil, map[string]*Schema{
					"item_id":         integer(),
					"in_sql_db":       boolean(""),
					"in_blob_storage": boolean(""),
				})),
			})),
		}},
		"/sim_search_classification": {Post: &Operation{
			Tags:    []string{"similarity search"},
			Summary: "Classify items by their nearest reference item",
			RequestBody: jsonBody(object([]string{"item_ids"}, map[string]*Schema{
				"item_ids":        itemIDs(),
				"describe_images": boolean("Describe item images with the vision model before searching"),
			})),
			Responses: responds("Task started", taskStarted()),
		}},
		"/create_reference_data": {Put: &Operation{
			Tags:    []string{"similarity search"},
			Summary: "Store classified items as reference data",
			RequestBody: jsonBody(object([]string{"items"}, map[string]*Schema{
				"items": arrayOf(ref("ReferenceItem")),
			})),
			Responses: responds("Task started", taskStarted()),
		}},
		"/delete_reference_data": {Delete: &Operation{
			Tags:      []string{"similarity search"},
			Summary:   "Delete the reference data collection",
			Responses: responds("Collection deleted", str("")),
		}},
		"/classify_items": {Post: &Operation{
			Tags:    []string{"tasks"},
			Summary: "Run a pipeline over stored items and save the results",
			RequestBody: jsonBody(object([]string{"item_ids", "task"}, map[string]*Schema{
				"item_ids": itemIDs(),
				"task":     {Type: "string", Enum: []string{"classification", "color_recognition", "hs_code"}},
			})),
			Responses: responds("Task started", taskStarted()),
		}},
		"/api/classify": {Post: &Operation{
			Tags:        []string{"classification"},
			Summary:     "Classify an image into main, sub, detail and level4",
			RequestBody: imageForm(itemFields),
			Responses:   responds("Classification", ref("Classification")),
		}},
		"/api/health": {Get: &Operation{
			Tags:      []string{"classification"},
			Summary:   "Classification service health",
			Responses: responds("Healthy", health),
		}},
		"/api/classify-colors": {Post: &Operation{
			Tags:    []string{"color detection"},
			Summary: "Detect up to three colors of a product image",
			RequestBody: imageForm(map[string]*Schema{
				"supplier_reference_description": itemFields["supplier_reference_description"],
				"materials":                      itemFields["materials"],
			}),
			Responses: responds("Detected colors", ref("ColorDetection")),
		}},
		"/api/color-health": {Get: &Operation{
			Tags:      []string{"color detection"},
			Summary:   "Color detection service health",
			Responses: responds("Healthy", health),
		}},
		"/api/classify-hs-code": {Post: &Operation{
			Tags:        []string{"hs code"},
			Summary:     "Suggest a Harmonized System code for an item",
			Description: "The image is optional for this endpoint.",
			RequestBody: imageForm(map[string]*Schema{
				"supplier_name":                  itemFields["supplier_name"],
				"supplier_reference_description": itemFields["supplier_reference_description"],
				"materials":                      itemFields["materials"],
				"main":                           str("Main category, if known"),
				"sub":                            str("Sub category, if known"),
				"detail":                         str("Detail category, if known"),
			}),
			Responses: responds("HS code", ref("HSCode")),
		}},
	}

	return &Document{
		OpenAPI: "3.0.3",
		Info: Info{
			Title:       Title,
			Description: "Product classification, color recognition and HS code classification for home decor and furniture items.",
			Version:     version,
		},
		Paths:      paths,
		Components: &Components{Schemas: schemas},
	}
}

func (d *Document) JSON() ([]byte, error) {
	return json.Marshal(d)
}

func (d *Document) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}
