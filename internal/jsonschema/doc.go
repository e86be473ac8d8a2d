// Package jsonschema derives JSON Schema documents from Go types so tool
// inputs can be advertised to the model as function parameters.
//
// Field names follow the json tag. A jsonschema tag refines a field with
// semicolon-separated directives:
//
//	Symbol string `json:"symbol" jsonschema:"description=Ticker symbol, e.g. AAPL;required"`
//	Period string `json:"period,omitempty" jsonschema:"enum=1mo|3mo|1y"`
package jsonschema
