package parse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseStringAs converts content to T. Strings are returned as-is, other
// scalars go through strconv, and everything else is decoded as JSON.
//
//	args, err := parse.ParseStringAs[QuoteInput](`{symbol: 'NVDA'}`)
func ParseStringAs[T any](content string) (T, error) {
	var result T
	target := reflect.ValueOf(&result).Elem()
	trimmed := strings.TrimSpace(content)

	switch target.Kind() {
	case reflect.String:
		target.SetString(content)
		return result, nil

	case reflect.Bool:
		v, err := strconv.ParseBool(trimmed)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as bool: %w", err)
		}
		target.SetBool(v)
		return result, nil

	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as float: %w", err)
		}
		target.SetFloat(v)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as int: %w", err)
		}
		target.SetInt(v)
		return result, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(trimmed, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as uint: %w", err)
		}
		target.SetUint(v)
		return result, nil
	}

	candidate := stripCodeFence(trimmed)
	if candidate == "" {
		return result, fmt.Errorf("failed to parse empty content as %T", result)
	}

	err := json.Unmarshal([]byte(candidate), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return result, fmt.Errorf("failed to parse content as %T: %w (repair failed: %v)", result, err, repairErr)
	}
	var repairedResult T
	if err := json.Unmarshal([]byte(repaired), &repairedResult); err != nil {
		return result, fmt.Errorf("failed to parse repaired content as %T: %w", result, err)
	}
	return repairedResult, nil
}

// stripCodeFence removes a surrounding ```json ... ``` block if present.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if newline := strings.IndexByte(s, '\n'); newline >= 0 {
		s = s[newline+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
