package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type priceInput struct {
	Symbol string `json:"symbol" jsonschema:"description=Ticker symbol"`
}

type priceOutput struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func priceTool() *Tool[priceInput, priceOutput] {
	return NewTool("get_current_stock_price",
		func(_ context.Context, in priceInput) (priceOutput, error) {
			if in.Symbol == "" {
				return priceOutput{}, errors.New("symbol is required")
			}
			return priceOutput{Symbol: strings.ToUpper(in.Symbol), Price: 120.5}, nil
		},
		WithDescription("Current price of a stock"),
	)
}

func TestTool_ToolInfo(t *testing.T) {
	info := priceTool().ToolInfo()
	if info.Name != "get_current_stock_price" || info.Description != "Current price of a stock" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.Parameters == nil || info.Parameters.Properties["symbol"] == nil {
		t.Fatal("expected derived schema with symbol property")
	}
}

func TestTool_Call(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{"valid", `{"symbol":"nvda"}`, `{"symbol":"NVDA","price":120.5}`, ""},
		{"repaired arguments", `{symbol: 'tsla'}`, `{"symbol":"TSLA","price":120.5}`, ""},
		{"empty arguments reach function", ``, "", "symbol is required"},
		{"function error", `{}`, "", "symbol is required"},
		{"garbage", `[1,2`, "", "invalid arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := priceTool().Call(context.Background(), tt.input)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	c := NewCatalog(priceTool())
	other := NewTool("duckduckgo_search", func(_ context.Context, in priceInput) (string, error) { return in.Symbol, nil })
	c.Add(other)

	if c.Size() != 2 {
		t.Fatalf("expected 2 tools, got %d", c.Size())
	}
	if _, ok := c.Get("GET_CURRENT_STOCK_PRICE"); !ok {
		t.Error("lookup should be case-insensitive")
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("unexpected tool found")
	}

	descriptions := c.Descriptions()
	if descriptions[0].Name != "duckduckgo_search" || descriptions[1].Name != "get_current_stock_price" {
		t.Errorf("descriptions not sorted: %v", descriptions)
	}
}
