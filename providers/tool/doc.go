// Package tool turns typed Go functions into tools a model can call.
//
// [NewTool] derives the parameter schema from the input type and wraps the
// function so it can be invoked with the model's raw JSON arguments through
// the [GenericTool] interface. A [Catalog] indexes tools by name for dispatch.
package tool
