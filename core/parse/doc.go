// Package parse converts model output into Go values. Tool-call arguments
// produced by language models are often almost-JSON: fenced in markdown,
// single-quoted or missing a closing brace. [ParseStringAs] strips fences and
// repairs the text with jsonrepair before giving up.
package parse
