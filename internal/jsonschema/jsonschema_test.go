package jsonschema

import (
	"reflect"
	"strings"
	"testing"
)

type quoteInput struct {
	Symbol   string   `json:"symbol" jsonschema:"description=Ticker symbol, e.g. AAPL"`
	Period   string   `json:"period,omitempty" jsonschema:"enum=1mo|3mo|1y"`
	Limit    *int     `json:"limit"`
	Tags     []string `json:"tags,omitempty"`
	Verbose  bool     `json:"verbose,omitempty" jsonschema:"required"`
	Ignored  string   `json:"-"`
	internal string
}

type node struct {
	Name     string  `json:"name"`
	Children []*node `json:"children,omitempty"`
}

func TestGenerateJSONSchema_Struct(t *testing.T) {
	schema, err := GenerateJSONSchema[quoteInput]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.Type != "object" {
		t.Fatalf("expected object, got %s", schema.Type)
	}

	tests := []struct {
		property string
		wantType string
	}{
		{"symbol", "string"},
		{"period", "string"},
		{"limit", "integer"},
		{"tags", "array"},
		{"verbose", "boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.property, func(t *testing.T) {
			prop, ok := schema.Properties[tt.property]
			if !ok {
				t.Fatalf("missing property %s", tt.property)
			}
			if prop.Type != tt.wantType {
				t.Errorf("property %s type = %s, want %s", tt.property, prop.Type, tt.wantType)
			}
		})
	}

	if _, ok := schema.Properties["Ignored"]; ok {
		t.Error("json:\"-\" field should be skipped")
	}
	if _, ok := schema.Properties["internal"]; ok {
		t.Error("unexported field should be skipped")
	}
	if got := schema.Properties["symbol"].Description; got != "Ticker symbol, e.g. AAPL" {
		t.Errorf("description with comma not preserved: %q", got)
	}
	if got := schema.Properties["period"].Enum; !reflect.DeepEqual(got, []any{"1mo", "3mo", "1y"}) {
		t.Errorf("unexpected enum %v", got)
	}
	if schema.Properties["tags"].Items.Type != "string" {
		t.Error("expected string items for tags")
	}

	wantRequired := []string{"symbol", "verbose"}
	if !reflect.DeepEqual(schema.Required, wantRequired) {
		t.Errorf("required = %v, want %v", schema.Required, wantRequired)
	}
}

func TestGenerateJSONSchema_Primitives(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want string
	}{
		{"string", reflect.TypeFor[string](), "string"},
		{"float", reflect.TypeFor[float64](), "number"},
		{"uint", reflect.TypeFor[uint8](), "integer"},
		{"pointer", reflect.TypeFor[*bool](), "boolean"},
		{"map", reflect.TypeFor[map[string]int](), "object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := FromType(tt.typ)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if schema.Type != tt.want {
				t.Errorf("got %s, want %s", schema.Type, tt.want)
			}
		})
	}
}

func TestGenerateJSONSchema_RecursiveTypeTerminates(t *testing.T) {
	schema, err := GenerateJSONSchema[node]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	children := schema.Properties["children"]
	if children == nil || children.Items == nil {
		t.Fatal("expected children array schema")
	}
	if children.Items.Type != "object" || children.Items.Properties != nil {
		t.Errorf("expected recursion cut to plain object, got %s", children.Items)
	}
}

func TestGenerateJSONSchema_BadTag(t *testing.T) {
	type badEnum struct {
		Count int `json:"count" jsonschema:"enum=one|two"`
	}
	if _, err := GenerateJSONSchema[badEnum](); err == nil {
		t.Error("expected error for non-integer enum")
	}

	type unknownDirective struct {
		Name string `json:"name" jsonschema:"minLength=3"`
	}
	_, err := GenerateJSONSchema[unknownDirective]()
	if err == nil || !strings.Contains(err.Error(), "minLength") {
		t.Errorf("expected unknown directive error, got %v", err)
	}
}

func TestSchema_String(t *testing.T) {
	schema := &Schema{Type: "object", Required: []string{"a"}}
	if got := schema.String(); got != `{"type":"object","required":["a"]}` {
		t.Errorf("unexpected JSON %s", got)
	}
}
