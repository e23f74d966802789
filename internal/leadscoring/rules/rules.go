// Package rules holds the declarative tables that drive lead and off-market scoring.
// The defaults are embedded; a YAML file can replace them at startup.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// Field selects which part of a property a KeywordRule inspects.
type Field string

const (
	FieldDetails   Field = "details"
	FieldStatus    Field = "status"
	FieldOwnerName Field = "owner_name"
	FieldSource    Field = "source"
)

// Bonus is a fixed point award with the indicator it emits.
type Bonus struct {
	Points    float64 `yaml:"points"`
	Indicator string  `yaml:"indicator"`
}

// CountMatch requires Term to occur at least Min times.
type CountMatch struct {
	Term string `yaml:"term"`
	Min  int    `yaml:"min"`
}

// KeywordRule is one row of a scoring table. All configured conditions must hold.
type KeywordRule struct {
	Name    string      `yaml:"name"`
	Field   Field       `yaml:"field"`
	Equals  string      `yaml:"equals"`
	AnyOf   []string    `yaml:"any_of"`
	AllOf   [][]string  `yaml:"all_of"`
	Count   *CountMatch `yaml:"count"`
	Pattern string      `yaml:"pattern"`
	// CaseSensitive compares keywords and the pattern against the raw field.
	CaseSensitive bool    `yaml:"case_sensitive"`
	Group         string  `yaml:"group"`
	Points        float64 `yaml:"points"`
	Category      string  `yaml:"category"`
	Urgent        bool    `yaml:"urgent"`
	Indicator     string  `yaml:"indicator"`

	pattern *regexp.Regexp
}

// FactorRules is a capped table of keyword rules.
type FactorRules struct {
	Cap       float64       `yaml:"cap"`
	Reasoning string        `yaml:"reasoning"`
	Rules     []KeywordRule `yaml:"rules"`
}

// Band is a typical listing price range for a ZIP code.
type Band struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

type MarketRules struct {
	Cap               float64         `yaml:"cap"`
	Reasoning         string          `yaml:"reasoning"`
	DefaultZip        string          `yaml:"default_zip"`
	FallbackBand      Band            `yaml:"fallback_band"`
	ZipBands          map[string]Band `yaml:"zip_bands"`
	HighDemandZips    []string        `yaml:"high_demand_zips"`
	DeepDiscountRatio float64         `yaml:"deep_discount_ratio"`
	DeepDiscount      Bonus           `yaml:"deep_discount"`
	Discount          Bonus           `yaml:"discount"`
	HighDemand        Bonus           `yaml:"high_demand"`
	StaleAfterDays    float64         `yaml:"stale_after_days"`
	Stale             Bonus           `yaml:"stale"`
}

// BandFor returns the price band for zip and the ZIP actually used.
// A blank zip falls back to DefaultZip; an unknown one to FallbackBand.
func (m MarketRules) BandFor(zip string) (Band, string) {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		zip = m.DefaultZip
	}
	if band, ok := m.ZipBands[zip]; ok {
		return band, zip
	}
	return m.FallbackBand, zip
}

// IsHighDemand reports whether zip is in the high-demand set.
func (m MarketRules) IsHighDemand(zip string) bool {
	for _, z := range m.HighDemandZips {
		if z == zip {
			return true
		}
	}
	return false
}

type CharacteristicRules struct {
	Cap           float64          `yaml:"cap"`
	Reasoning     string           `yaml:"reasoning"`
	PropertyTypes map[string]Bonus `yaml:"property_types"`
	LargeSqft     int              `yaml:"large_sqft"`
	Sqft          Bonus            `yaml:"sqft"`
	LargeLot      int              `yaml:"large_lot"`
	Lot           Bonus            `yaml:"lot"`
}

type SourceRules struct {
	Cap           float64            `yaml:"cap"`
	DefaultWeight float64            `yaml:"default_weight"`
	Weights       map[string]float64 `yaml:"weights"`
}

// Weight returns the exact-match reliability weight for source.
func (s SourceRules) Weight(source string) float64 {
	if w, ok := s.Weights[source]; ok {
		return w
	}
	return s.DefaultWeight
}

type OffMarketRules struct {
	MinScore              int           `yaml:"min_score"`
	Cap                   float64       `yaml:"cap"`
	Rules                 []KeywordRule `yaml:"rules"`
	StaleAfterDays        float64       `yaml:"stale_after_days"`
	Stale                 Bonus         `yaml:"stale"`
	FreshWithinDays       float64       `yaml:"fresh_within_days"`
	Fresh                 Bonus         `yaml:"fresh"`
	LowPrice              int64         `yaml:"low_price"`
	LowPriceBonus         Bonus         `yaml:"low_price_bonus"`
	MidPrice              int64         `yaml:"mid_price"`
	MidPriceBonus         Bonus         `yaml:"mid_price_bonus"`
	CompoundingCategories []string      `yaml:"compounding_categories"`
	CompoundingMin        int           `yaml:"compounding_min"`
	Compounding           Bonus         `yaml:"compounding"`
}

// Rules is the complete rule set.
type Rules struct {
	Version         string              `yaml:"version"`
	Foreclosure     FactorRules         `yaml:"foreclosure"`
	OwnerDistress   FactorRules         `yaml:"owner_distress"`
	Market          MarketRules         `yaml:"market"`
	Characteristics CharacteristicRules `yaml:"characteristics"`
	Source          SourceRules         `yaml:"source"`
	OffMarket       OffMarketRules      `yaml:"off_market"`
}

// Default returns the embedded rule set. It panics if the embedded document is invalid,
// which the package tests guard against.
func Default() *Rules {
	r, err := Parse(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded scoring rules: %v", err))
	}
	return r
}

// Load reads rules from path, or returns the embedded defaults when path is empty.
func Load(path string) (*Rules, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(defaultRulesYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring rules: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML rule document.
func Parse(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode scoring rules: %w", err)
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Rules) compile() error {
	tables := []struct {
		name  string
		rules []KeywordRule
	}{
		{"foreclosure", r.Foreclosure.Rules},
		{"owner_distress", r.OwnerDistress.Rules},
		{"off_market", r.OffMarket.Rules},
	}
	for _, table := range tables {
		for i := range table.rules {
			if err := table.rules[i].compile(); err != nil {
				return fmt.Errorf("%s rule %q: %w", table.name, table.rules[i].Name, err)
			}
		}
	}

	if r.Foreclosure.Cap <= 0 || r.OwnerDistress.Cap <= 0 || r.Market.Cap <= 0 ||
		r.Characteristics.Cap <= 0 || r.Source.Cap <= 0 {
		return fmt.Errorf("every factor needs a positive cap")
	}
	if r.Market.DefaultZip == "" {
		return fmt.Errorf("market.default_zip is required")
	}
	if r.OffMarket.Cap <= 0 {
		r.OffMarket.Cap = 100
	}
	return nil
}

func (k *KeywordRule) compile() error {
	if k.Field == "" {
		k.Field = FieldDetails
	}
	switch k.Field {
	case FieldDetails, FieldStatus, FieldOwnerName, FieldSource:
	default:
		return fmt.Errorf("unknown field %q", k.Field)
	}
	if k.Equals == "" && len(k.AnyOf) == 0 && len(k.AllOf) == 0 && k.Count == nil && k.Pattern == "" {
		return fmt.Errorf("rule has no condition")
	}
	if k.Pattern != "" {
		re, err := regexp.Compile(k.Pattern)
		if err != nil {
			return fmt.Errorf("compile pattern: %w", err)
		}
		k.pattern = re
	}
	return nil
}
