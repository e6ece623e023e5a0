package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled caches compiled schemas by name and validation mode.
var compiled sync.Map // map[string]*jsonschema.Schema

// boundKeywords are dropped from lenient schemas before compiling.
var boundKeywords = map[string]bool{
	"required":             true,
	"additionalProperties": true,
	"minimum":              true,
	"maximum":              true,
	"exclusiveMinimum":     true,
	"exclusiveMaximum":     true,
	"minItems":             true,
	"maxItems":             true,
	"minLength":            true,
	"maxLength":            true,
}

var errEmptyReply = errors.New("empty reply")

// finish validates a provider reply before it leaves the adapter. A reply
// cut off by the token limit cannot hold a complete JSON object, so it is
// reported as truncated rather than invalid.
func finish(provider string, schema *Schema, resp *Response) (*Response, error) {
	if schema == nil {
		return resp, nil
	}
	if resp.StopReason == StopMaxTokens {
		return nil, &Error{Kind: KindTruncated, Provider: provider, Content: resp.Content}
	}
	if err := validateResponse(provider, schema, resp.Content); err != nil {
		return nil, err
	}
	return resp, nil
}

// validateResponse checks raw against schema. For a lenient schema only
// the JSON types are checked and null is accepted anywhere.
func validateResponse(provider string, schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	invalid := func(err error) error {
		return &Error{Kind: KindInvalidOutput, Provider: provider, Content: raw, Err: err}
	}

	if len(raw) == 0 {
		return invalid(errEmptyReply)
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return invalid(fmt.Errorf("not JSON: %w", err))
	}

	sch, err := compile(schema)
	if err != nil {
		return invalid(fmt.Errorf("compile schema %q: %w", schema.Name, err))
	}
	if err := sch.Validate(parsed); err != nil {
		return invalid(fmt.Errorf("schema %q: %w", schema.Name, err))
	}
	return nil
}

func compile(schema *Schema) (*jsonschema.Schema, error) {
	key := schema.Name
	def := schema.Definition
	if schema.Lenient {
		key += "#lenient"
		def = relax(def)
	}
	if cached, ok := compiled.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants plain decoded JSON, not Go maps with typed slices.
	b, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := "schema://" + key + ".json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	compiled.Store(key, sch)
	return sch, nil
}

// relax returns a copy of def without presence or bound constraints, with
// every typed node also accepting null.
func relax(def map[string]any) map[string]any {
	out := make(map[string]any, len(def))
	for k, v := range def {
		if boundKeywords[k] {
			continue
		}
		switch k {
		case "type":
			if t, ok := v.(string); ok && t != "null" {
				out[k] = []any{t, "null"}
				continue
			}
			out[k] = v
		case "properties":
			props, _ := v.(map[string]any)
			relaxed := make(map[string]any, len(props))
			for name, p := range props {
				if pm, ok := p.(map[string]any); ok {
					relaxed[name] = relax(pm)
				} else {
					relaxed[name] = p
				}
			}
			out[k] = relaxed
		case "items":
			if m, ok := v.(map[string]any); ok {
				out[k] = relax(m)
			} else {
				out[k] = v
			}
		default:
			out[k] = v
		}
	}
	return out
}
