package yfinance

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const defaultNewsCount = 3

type NewsInput struct {
	Symbol     string `json:"symbol" jsonschema:"description=Ticker symbol"`
	NumStories int    `json:"num_stories,omitempty" jsonschema:"description=How many headlines to return (default 3)"`
}

type NewsItem struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher,omitempty"`
	Link      string `json:"link"`
	Published string `json:"published,omitempty"`
}

type NewsOutput struct {
	Symbol string     `json:"symbol"`
	News   []NewsItem `json:"news"`
}

type searchResponse struct {
	News []struct {
		Title               string `json:"title"`
		Publisher           string `json:"publisher"`
		Link                string `json:"link"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// CompanyNews returns recent headlines mentioning the symbol.
func (c *Client) CompanyNews(ctx context.Context, in NewsInput) (NewsOutput, error) {
	symbol, err := normalizeSymbol(in.Symbol)
	if err != nil {
		return NewsOutput{}, err
	}
	count := in.NumStories
	if count <= 0 {
		count = defaultNewsCount
	}

	query := url.Values{}
	query.Set("q", symbol)
	query.Set("quotesCount", "0")
	query.Set("newsCount", strconv.Itoa(count))

	resp, err := getJSON[searchResponse](ctx, c, "/v1/finance/search", query)
	if err != nil {
		return NewsOutput{}, fmt.Errorf("yfinance news %s: %w", symbol, err)
	}

	out := NewsOutput{Symbol: symbol, News: []NewsItem{}}
	for _, n := range resp.News {
		if len(out.News) >= count {
			break
		}
		item := NewsItem{Title: n.Title, Publisher: n.Publisher, Link: n.Link}
		if n.ProviderPublishTime > 0 {
			item.Published = time.Unix(n.ProviderPublishTime, 0).UTC().Format(time.RFC3339)
		}
		out.News = append(out.News, item)
	}
	return out, nil
}
