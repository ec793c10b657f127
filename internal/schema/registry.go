package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v2"
)

// DefaultVersion is the version of the built-in mapping tables.
const DefaultVersion = "2024.1"

// MatchTier tells how a raw column was resolved. Lower tiers take precedence.
type MatchTier int

const (
	MatchOverride MatchTier = iota
	MatchPlatform
	MatchGeneric
)

func (t MatchTier) String() string {
	switch t {
	case MatchOverride:
		return "override"
	case MatchPlatform:
		return "platform"
	default:
		return "generic"
	}
}

// Definition is the declarative form of a registry, also used for YAML override files.
type Definition struct {
	Version   string                        `yaml:"version"`
	Platforms map[string]PlatformDefinition `yaml:"platforms"`
	Generic   map[string][]string           `yaml:"generic"`
}

// PlatformDefinition holds one platform's detection signature and column synonyms.
type PlatformDefinition struct {
	Signature []string            `yaml:"signature"`
	Columns   map[string][]string `yaml:"columns"`
}

// Registry resolves raw column names to canonical fields. It is immutable after Build.
type Registry struct {
	version    string
	signatures map[Platform][]string
	platform   map[Platform]map[string]string
	generic    map[string]string
}

var defaultRegistry = mustBuild(DefaultDefinition())

// Default returns the process-wide registry built from the built-in tables.
func Default() *Registry {
	return defaultRegistry
}

// DefaultDefinition returns the built-in mapping tables.
func DefaultDefinition() Definition {
	return Definition{
		Version: DefaultVersion,
		Platforms: map[string]PlatformDefinition{
			string(PlatformGoogleAds): {
				Signature: []string{"campaign", "ad group", "keyword", "clicks", "impressions", "cost", "ctr"},
				Columns: map[string][]string{
					FieldCampaign:    {"campaign"},
					FieldAdSet:       {"ad group"},
					FieldKeyword:     {"keyword", "search keyword"},
					FieldSpend:       {"cost"},
					FieldConversions: {"conversions", "conv."},
					FieldRevenue:     {"conv. value", "conversion value", "all conv. value"},
					FieldDate:        {"day", "date"},
					FieldImpressions: {"impr.", "impressions"},
				},
			},
			string(PlatformMeta): {
				Signature: []string{"campaign name", "ad set name", "ad name", "campaign_id", "reach", "frequency"},
				Columns: map[string][]string{
					FieldCampaign:    {"campaign name"},
					FieldAdSet:       {"ad set name"},
					FieldAd:          {"ad name"},
					FieldSpend:       {"amount spent"},
					FieldClicks:      {"link clicks", "clicks (all)"},
					FieldConversions: {"results", "purchases"},
					FieldRevenue:     {"purchase conversion value", "website purchases conversion value"},
					FieldDate:        {"reporting starts", "day"},
					FieldReach:       {"reach"},
				},
			},
			string(PlatformTikTok): {
				Signature: []string{"campaign_name", "adgroup_name", "ad_name", "campaign_id"},
				Columns: map[string][]string{
					FieldCampaign:    {"campaign_name", "campaign name"},
					FieldAdSet:       {"adgroup_name", "ad group name"},
					FieldAd:          {"ad_name"},
					FieldSpend:       {"cost", "total cost"},
					FieldConversions: {"conversions", "complete payment"},
					FieldRevenue:     {"total complete payment value"},
					FieldDate:        {"stat_time_day", "stat_days", "date"},
				},
			},
			string(PlatformLinkedIn): {
				Signature: []string{"campaign name", "campaign group", "creative name"},
				Columns: map[string][]string{
					FieldCampaign:    {"campaign name"},
					FieldAd:          {"creative name"},
					FieldSpend:       {"total spent", "amount spent"},
					FieldConversions: {"conversions", "leads"},
					FieldRevenue:     {"conversion value"},
					FieldDate:        {"start date (in utc)", "start date"},
				},
			},
		},
		Generic: map[string][]string{
			FieldDate:        {"date", "day", "reporting_period", "report_date", "stat_days", "time_period"},
			FieldPlatform:    {"platform", "source", "network", "channel"},
			FieldCampaign:    {"campaign_name", "campaign", "campaign name"},
			FieldAdSet:       {"adset_name", "ad set name", "ad_set_name", "ad group", "adgroup_name", "ad group name"},
			FieldAd:          {"ad_name", "ad name", "ad", "creative name", "creative"},
			FieldKeyword:     {"keyword", "search keyword", "search term"},
			FieldCountry:     {"country", "region", "geo", "location"},
			FieldDevice:      {"device", "device type"},
			FieldCurrency:    {"currency", "currency code", "account currency"},
			FieldImpressions: {"impressions", "imps", "impr", "impression"},
			FieldClicks:      {"clicks", "click", "link_clicks", "link clicks"},
			FieldSpend:       {"spend", "cost", "ad spend", "ad_spend", "amount spent", "amount_spent", "total spent"},
			FieldConversions: {"conversions", "conv", "converts", "purchases", "completes"},
			FieldRevenue:     {"revenue", "conv value", "conversion value", "conversion_value", "purchase_value"},
			FieldReach:       {"reach", "unique reach"},
			FieldCTR:         {"ctr", "click through rate"},
			FieldCPC:         {"cpc", "avg. cpc", "average cpc", "cost per click"},
			FieldCPM:         {"cpm", "avg. cpm", "average cpm"},
			FieldCPA:         {"cpa", "cost / conv.", "cost per conversion", "cost per result"},
			FieldROAS:        {"roas", "purchase roas", "return on ad spend"},
		},
	}
}

// Build validates a definition and indexes it for lookups.
func Build(def Definition) (*Registry, error) {
	r := &Registry{
		version:    def.Version,
		signatures: make(map[Platform][]string),
		platform:   make(map[Platform]map[string]string),
		generic:    make(map[string]string),
	}
	if r.version == "" {
		r.version = DefaultVersion
	}

	for name, pdef := range def.Platforms {
		p := Platform(name)
		if !p.IsKnown() {
			return nil, fmt.Errorf("schema: unknown platform %q", name)
		}
		sig := make([]string, 0, len(pdef.Signature))
		for _, col := range pdef.Signature {
			if key := NormalizeKey(col); key != "" {
				sig = append(sig, key)
			}
		}
		r.signatures[p] = sig

		index := make(map[string]string)
		if err := indexColumns(index, pdef.Columns); err != nil {
			return nil, fmt.Errorf("schema: platform %s: %w", name, err)
		}
		r.platform[p] = index
	}

	if err := indexColumns(r.generic, def.Generic); err != nil {
		return nil, fmt.Errorf("schema: generic mapping: %w", err)
	}
	// Canonical names always resolve to themselves.
	for _, field := range AllFields() {
		r.generic[NormalizeKey(field)] = field
	}
	return r, nil
}

func indexColumns(index map[string]string, columns map[string][]string) error {
	// Sorted so that a synonym shared by two fields resolves the same way on every build.
	fields := make([]string, 0, len(columns))
	for field := range columns {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if _, ok := KindOf(field); !ok {
			return fmt.Errorf("unknown canonical field %q", field)
		}
		for _, raw := range columns[field] {
			key := NormalizeKey(raw)
			if key == "" {
				continue
			}
			if _, taken := index[key]; !taken {
				index[key] = field
			}
		}
	}
	return nil
}

func mustBuild(def Definition) *Registry {
	r, err := Build(def)
	if err != nil {
		panic(err)
	}
	return r
}

// LoadRegistry builds a registry from the built-in tables extended by a YAML file.
// Synonyms in the file are added in front of the built-in ones; a signature replaces the built-in one.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var ext Definition
	if err := yaml.Unmarshal(data, &ext); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	return Build(Merge(DefaultDefinition(), ext))
}

// Merge overlays ext on base and returns the combined definition.
func Merge(base, ext Definition) Definition {
	out := Definition{
		Version:   base.Version,
		Platforms: make(map[string]PlatformDefinition, len(base.Platforms)),
		Generic:   mergeColumns(base.Generic, ext.Generic),
	}
	if ext.Version != "" {
		out.Version = ext.Version
	}

	for name, pdef := range base.Platforms {
		out.Platforms[name] = pdef
	}
	for name, pdef := range ext.Platforms {
		cur := out.Platforms[name]
		if len(pdef.Signature) > 0 {
			cur.Signature = pdef.Signature
		}
		cur.Columns = mergeColumns(cur.Columns, pdef.Columns)
		out.Platforms[name] = cur
	}
	return out
}

func mergeColumns(base, ext map[string][]string) map[string][]string {
	out := make(map[string][]string, len(base)+len(ext))
	for field, syns := range base {
		out[field] = append([]string(nil), syns...)
	}
	for field, syns := range ext {
		out[field] = append(append([]string(nil), syns...), out[field]...)
	}
	return out
}

// Version returns the registry version string.
func (r *Registry) Version() string {
	return r.version
}

// Signature returns the normalized signature columns of a platform.
func (r *Registry) Signature(p Platform) []string {
	return r.signatures[p]
}

// Lookup resolves a raw column name for the given platform. Platform specific synonyms win over
// generic ones; PlatformUnknown only consults the generic table.
func (r *Registry) Lookup(p Platform, column string) (string, MatchTier, bool) {
	key := NormalizeKey(column)
	if key == "" {
		return "", MatchGeneric, false
	}
	if index, ok := r.platform[p]; ok {
		if field, ok := index[key]; ok {
			return field, MatchPlatform, true
		}
	}
	if field, ok := r.generic[key]; ok {
		return field, MatchGeneric, true
	}
	return "", MatchGeneric, false
}

// NormalizeKey lower-cases s, drops parenthesised segments and removes everything that is not a
// letter or digit. A name made only of a parenthesised segment keeps its inner text.
func NormalizeKey(s string) string {
	key := normalizeRunes(stripParens(s))
	if key == "" {
		key = normalizeRunes(s)
	}
	return key
}

func stripParens(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeRunes(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
