package rules

import "testing"

func TestDefault_LoadsEmbeddedTables(t *testing.T) {
	r := Default()

	if r.Foreclosure.Cap != 35 || r.OwnerDistress.Cap != 25 || r.Market.Cap != 20 || r.Characteristics.Cap != 15 || r.Source.Cap != 5 {
		t.Fatalf("unexpected caps: %v %v %v %v %v", r.Foreclosure.Cap, r.OwnerDistress.Cap, r.Market.Cap, r.Characteristics.Cap, r.Source.Cap)
	}
	if len(r.Foreclosure.Rules) != 5 {
		t.Fatalf("expected 5 foreclosure rules, got %d", len(r.Foreclosure.Rules))
	}
	if r.OffMarket.MinScore != 70 {
		t.Fatalf("expected off-market min score 70, got %d", r.OffMarket.MinScore)
	}
}

func TestMarketRules_BandFor(t *testing.T) {
	m := Default().Market

	band, zip := m.BandFor("")
	if zip != "96814" || band.Low != 500000 {
		t.Fatalf("expected default zip 96814 with low 500000, got %s %v", zip, band.Low)
	}

	band, zip = m.BandFor("96701")
	if zip != "96701" || band.Low != 400000 || band.High != 900000 {
		t.Fatalf("expected fallback band for unknown zip, got %s %+v", zip, band)
	}
}

func TestSourceRules_Weight(t *testing.T) {
	s := Default().Source
	if got := s.Weight("Honolulu County Records"); got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
	if got := s.Weight("honolulu county records"); got != 1 {
		t.Fatalf("expected exact lookup to miss and score 1, got %v", got)
	}
}

func TestKeywordRule_Matches(t *testing.T) {
	r := Default()
	byName := func(rules []KeywordRule, name string) KeywordRule {
		for _, rule := range rules {
			if rule.Name == name {
				return rule
			}
		}
		t.Fatalf("rule %s not found", name)
		return KeywordRule{}
	}

	tax := byName(r.OwnerDistress.Rules, "tax_delinquency")
	if !tax.Matches(Subject{Details: "Property TAX lien recorded"}) {
		t.Fatalf("expected tax + lien to match")
	}
	if tax.Matches(Subject{Details: "tax assessment pending"}) {
		t.Fatalf("expected tax alone not to match")
	}

	liens := byName(r.OwnerDistress.Rules, "multiple_liens")
	if liens.Matches(Subject{Details: "one lien"}) {
		t.Fatalf("expected single lien not to match")
	}
	if !liens.Matches(Subject{Details: "lien and second lien"}) {
		t.Fatalf("expected two liens to match")
	}

	auction := byName(r.Foreclosure.Rules, "auction_date")
	if auction.Matches(Subject{Details: "auction soon"}) {
		t.Fatalf("expected auction without date not to match")
	}
	if !auction.Matches(Subject{Details: "Auction on 3/15/2025"}) {
		t.Fatalf("expected auction with date to match")
	}

	status := byName(r.Foreclosure.Rules, "active_foreclosure")
	if status.Matches(Subject{Status: "foreclosure"}) {
		t.Fatalf("expected status match to be exact")
	}

	owner := byName(r.OwnerDistress.Rules, "entity_owner")
	if !owner.Matches(Subject{OwnerName: "Smith Family Trust"}) {
		t.Fatalf("expected Trust match")
	}
	for _, name := range []string{"Wellcome Family", "Smith family trust", "Kona Holdings llc"} {
		if owner.Matches(Subject{OwnerName: name}) {
			t.Fatalf("expected %q not to count as entity ownership", name)
		}
	}

	taxKeywords := byName(r.OffMarket.Rules, "tax_keywords")
	for _, details := range []string{"Property taxes delinquent since 2021", "owner owes taxes, lien recorded", "Tax delinquent"} {
		if !taxKeywords.Matches(Subject{Details: details}) {
			t.Fatalf("expected %q to match tax keywords", details)
		}
	}
	if taxKeywords.Matches(Subject{Details: "tax assessment current"}) {
		t.Fatalf("expected tax alone not to match")
	}
}

func TestKeywordRule_CaseSensitiveCount(t *testing.T) {
	rule := KeywordRule{Name: "liens", CaseSensitive: true, Count: &CountMatch{Term: "Lien", Min: 2}}
	if err := rule.compile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.Matches(Subject{Details: "Lien and lien"}) {
		t.Fatalf("expected lower-case lien not to count")
	}
	if !rule.Matches(Subject{Details: "Lien and Lien"}) {
		t.Fatalf("expected two Liens to match")
	}
}

func TestParse_RejectsRuleWithoutCondition(t *testing.T) {
	doc := []byte(`
foreclosure: {cap: 35, rules: [{name: empty, points: 5}]}
owner_distress: {cap: 25}
market: {cap: 20, default_zip: "96814"}
characteristics: {cap: 15}
source: {cap: 5}
`)
	if _, err := Parse(doc); err == nil {
		t.Fatalf("expected error for rule without condition")
	}
}

func TestParse_RejectsUnknownField(t *testing.T) {
	doc := []byte(`
foreclosure: {cap: 35, rules: [{name: bad, field: zoning, any_of: [x]}]}
owner_distress: {cap: 25}
market: {cap: 20, default_zip: "96814"}
characteristics: {cap: 15}
source: {cap: 5}
`)
	if _, err := Parse(doc); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}
