package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/truthscan-ai/truthscan/internal/inference"
)

const replySchemaURL = "https://truthscan.local/schemas/detection-reply.schema.json"

// ReplySchema is the output schema declared to the model.
func ReplySchema() *inference.Schema {
	return &inference.Schema{
		Type: inference.TypeObject,
		Properties: map[string]*inference.Schema{
			"verdict": {
				Type:        inference.TypeString,
				Description: "The final verdict: Real, Mostly Real, Mixed, Mostly Fake, Fake, or Unverifiable",
			},
			"confidenceScore": {
				Type:        inference.TypeNumber,
				Description: "A numeric score from 0-100 indicating how certain the AI is.",
			},
			"analysis": {
				Type:        inference.TypeString,
				Description: "A summary of the overall analysis.",
			},
			"keyFindings": {
				Type:        inference.TypeArray,
				Items:       &inference.Schema{Type: inference.TypeString},
				Description: "A list of bullet points highlighting specific red flags or confirmations.",
			},
		},
		Required: []string{"verdict", "confidenceScore", "analysis", "keyFindings"},
	}
}

// toJSONSchema renders s as a JSON Schema document.
func toJSONSchema(s *inference.Schema) map[string]any {
	doc := map[string]any{"type": s.Type}
	if s.Description != "" {
		doc["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = toJSONSchema(prop)
		}
		doc["properties"] = props
	}
	if len(s.Required) > 0 {
		doc["required"] = append([]string(nil), s.Required...)
	}
	if s.Items != nil {
		doc["items"] = toJSONSchema(s.Items)
	}
	return doc
}

func compileReplySchema(s *inference.Schema) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(toJSONSchema(s))
	if err != nil {
		return nil, fmt.Errorf("marshal reply schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(replySchemaURL, strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("reply schema load failed: %w", err)
	}
	compiled, err := c.Compile(replySchemaURL)
	if err != nil {
		return nil, fmt.Errorf("reply schema compile failed: %w", err)
	}
	return compiled, nil
}
