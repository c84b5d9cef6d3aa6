package search

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed tickers.yaml
var embeddedTickers []byte

// Ticker is one row of the reference table.
type Ticker struct {
	Symbol  string   `yaml:"symbol" validate:"required"`
	Name    string   `yaml:"name" validate:"required"`
	English string   `yaml:"english"`
	Market  string   `yaml:"market" validate:"required"`
	Aliases []string `yaml:"aliases"`
}

// Table is the immutable reference dataset. It is loaded once at startup and
// only read afterwards.
type Table struct {
	tickers []Ticker
	keys    [][]string
	alias   map[string]int
}

var validate = validator.New()

// LoadTable parses a YAML ticker table. Later duplicates of a symbol are
// ignored.
func LoadTable(r io.Reader) (*Table, error) {
	var doc struct {
		Tickers []Ticker `yaml:"tickers"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding ticker table: %w", err)
	}

	t := &Table{alias: map[string]int{}}
	seen := map[string]struct{}{}
	for i, tk := range doc.Tickers {
		if err := validate.Struct(tk); err != nil {
			return nil, fmt.Errorf("ticker %d: %w", i, err)
		}
		if _, dup := seen[tk.Symbol]; dup {
			continue
		}
		seen[tk.Symbol] = struct{}{}

		idx := len(t.tickers)
		t.tickers = append(t.tickers, tk)
		t.keys = append(t.keys, []string{Fold(tk.Symbol), Fold(tk.Name), Fold(tk.English)})
		for _, a := range tk.Aliases {
			t.alias[Fold(a)] = idx
		}
	}
	return t, nil
}

// LoadTableFile loads path, or the embedded table when path is empty.
func LoadTableFile(path string) (*Table, error) {
	if path == "" {
		return EmbeddedTable()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ticker table: %w", err)
	}
	defer f.Close()
	return LoadTable(f)
}

// EmbeddedTable loads the table compiled into the binary.
func EmbeddedTable() (*Table, error) {
	return LoadTable(strings.NewReader(string(embeddedTickers)))
}

func (t *Table) Len() int { return len(t.tickers) }

// Fold lower-cases s and strips all whitespace.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// match ranks how well key matches row i: 3 exact, 2 prefix, 1 substring,
// 0 none.
func (t *Table) match(i int, key string) int {
	best := 0
	for _, k := range t.keys[i] {
		switch {
		case k == "":
		case k == key:
			return 3
		case strings.HasPrefix(k, key):
			best = max(best, 2)
		case strings.Contains(k, key):
			best = max(best, 1)
		}
	}
	return best
}
