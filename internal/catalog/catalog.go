// Package catalog holds the static set of supported tickers and their
// provider identifiers.
package catalog

import (
	"sort"
	"strings"
)

// DefaultEntries maps the curated NSE tickers to their Yahoo identifiers.
var DefaultEntries = map[string]string{
	"TCS":       "TCS.NS",
	"INFY":      "INFY.NS",
	"RELIANCE":  "RELIANCE.NS",
	"HDFCBANK":  "HDFCBANK.NS",
	"ICICIBANK": "ICICIBANK.NS",
	"WIPRO":     "WIPRO.NS",
	"HCLTECH":   "HCLTECH.NS",
}

// regionSuffixes are exchange suffixes that scope an identifier to a local listing.
var regionSuffixes = []string{".NS", ".BO"}

// Catalog is a read-only ticker registry. Build it once at startup and share it.
type Catalog struct {
	entries map[string]string
	symbols []string
}

// New builds a catalog from ticker -> provider id entries. Tickers are upper-cased.
func New(entries map[string]string) *Catalog {
	c := &Catalog{entries: make(map[string]string, len(entries))}
	for ticker, id := range entries {
		t := Normalize(ticker)
		if t == "" {
			continue
		}
		if strings.TrimSpace(id) == "" {
			id = t
		}
		c.entries[t] = strings.TrimSpace(id)
		c.symbols = append(c.symbols, t)
	}
	sort.Strings(c.symbols)
	return c
}

// Default returns the catalog of DefaultEntries.
func Default() *Catalog { return New(DefaultEntries) }

// Normalize trims and upper-cases a ticker.
func Normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Symbols returns all supported tickers.
func (c *Catalog) Symbols() []string {
	out := make([]string, len(c.symbols))
	copy(out, c.symbols)
	return out
}

func (c *Catalog) Contains(ticker string) bool {
	_, ok := c.entries[ticker]
	return ok
}

// Resolve maps a ticker to its provider id, falling back to the ticker itself.
func (c *Catalog) Resolve(ticker string) string {
	if id, ok := c.entries[ticker]; ok {
		return id
	}
	return ticker
}

// RegionSuffix reports whether id carries an exchange region suffix and
// returns id without it.
func RegionSuffix(id string) (string, bool) {
	for _, s := range regionSuffixes {
		if strings.HasSuffix(id, s) && len(id) > len(s) {
			return strings.TrimSuffix(id, s), true
		}
	}
	return id, false
}
