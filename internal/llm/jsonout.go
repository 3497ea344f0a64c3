package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

// StripFences removes a surrounding markdown code fence from a model
// response, tolerating a language tag and leading prose before the fence.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if idx := strings.Index(trimmed, "```"); idx >= 0 {
		rest := trimmed[idx+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			// Drop a language tag like "json" on the fence line.
			firstLine := strings.TrimSpace(rest[:nl])
			if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}[]") {
				rest = rest[nl+1:]
			}
		}
		if end := strings.LastIndex(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		trimmed = strings.TrimSpace(rest)
	}
	return trimmed
}

// CompileSchema compiles a JSON schema document for use with CompleteJSON.
// Panics on invalid schemas; schemas are package constants, so a bad one is
// a programming error.
func CompileSchema(name string, doc string) *jsonschema.Schema {
	schema, err := jsonschema.CompileString(name, doc)
	if err != nil {
		panic("invalid embedded schema " + name + ": " + err.Error())
	}
	return schema
}

// CompleteJSON runs a completion, strips code fences, validates the payload
// against schema (when non-nil), and unmarshals into out. The raw validated
// payload is returned for persistence or debugging.
func (c *Client) CompleteJSON(ctx context.Context, req Request, schema *jsonschema.Schema, out any) ([]byte, error) {
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	payload := []byte(StripFences(resp.Text))
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, errors.GenerationFailed("parse json output", err).
			WithContext("snippet", snippet(payload))
	}
	if schema != nil {
		if err := schema.Validate(decoded); err != nil {
			return nil, errors.GenerationFailed("validate json output", err)
		}
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return nil, errors.GenerationFailed("decode json output", err)
		}
	}
	return payload, nil
}

func snippet(b []byte) string {
	const max = 120
	s := string(b)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
