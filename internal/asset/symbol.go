package asset

import "strings"

// Symbol is a normalized ticker. Use Parse or New to build one so that
// equality holds across "vti", "VTI" and "$VTI".
type Symbol string

func New(value string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(value)))
}

func Parse(value string) Symbol {
	return New(strings.TrimPrefix(strings.TrimSpace(value), "$"))
}

func (s Symbol) String() string {
	return string(s)
}

// ParseAll parses every value and drops duplicates, keeping first-seen order.
func ParseAll(values []string) []Symbol {
	out := make([]Symbol, 0, len(values))
	seen := make(map[Symbol]struct{}, len(values))
	for _, value := range values {
		symbol := Parse(value)
		if symbol == "" {
			continue
		}
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		out = append(out, symbol)
	}
	return out
}

func Strings(symbols []Symbol) []string {
	out := make([]string, len(symbols))
	for i, symbol := range symbols {
		out[i] = string(symbol)
	}
	return out
}

// UnmarshalText lets config decoders accept "$VTI" style values.
func (s *Symbol) UnmarshalText(text []byte) error {
	*s = Parse(string(text))
	return nil
}

func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s), nil
}
