// Package chainfilter excludes franchise and corporate entities before
// any network probing. The keyword set is loaded once at startup and
// never mutated afterwards, so a Filter is safe for concurrent use.
package chainfilter

import "strings"

// DefaultKeywords lists obvious non-targets: national chains, carriers,
// big tech and institutions that will never buy local consulting work.
var DefaultKeywords = []string{
	"verizon", "at&t", "tmobile", "t-mobile",
	"google", "amazon", "microsoft", "apple", "facebook", "meta",
	"dell", "hp", "lenovo", "cisco", "ibm",
	"fortune 500", "multinational", "nasdaq", "nyse",
	"bank", "capital one", "chase", "wells fargo",
	"mcdonald", "walmart", "target", "costco",
	"federal", "government", "military", "defense",
	"tesla", "uber", "lyft", "airbnb",
}

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithKeywords replaces the default keyword set.
func WithKeywords(keywords []string) Option {
	return func(f *Filter) {
		if len(keywords) > 0 {
			f.keywords = normalize(keywords)
		}
	}
}

// WithAddressMatching enables matching against the candidate address in
// addition to the business name.
func WithAddressMatching(enabled bool) Option {
	return func(f *Filter) {
		f.matchAddress = enabled
	}
}

// Filter matches candidates against an immutable keyword set.
type Filter struct {
	keywords     []string
	matchAddress bool
}

// New creates a Filter with the default keyword set, then applies options.
func New(opts ...Option) *Filter {
	f := &Filter{keywords: normalize(DefaultKeywords)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Match reports whether the candidate matches a chain keyword and, if
// so, which one. Matching is case-insensitive substring containment on
// the business name, and on the address when address matching is on.
func (f *Filter) Match(name, address string) (string, bool) {
	haystacks := []string{strings.ToLower(name)}
	if f.matchAddress && address != "" {
		haystacks = append(haystacks, strings.ToLower(address))
	}
	for _, kw := range f.keywords {
		for _, h := range haystacks {
			if strings.Contains(h, kw) {
				return kw, true
			}
		}
	}
	return "", false
}

// Size returns the number of keywords loaded.
func (f *Filter) Size() int {
	return len(f.keywords)
}

func normalize(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
