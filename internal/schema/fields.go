package schema

// Canonical field names exposed by every normalized dataset.
const (
	FieldDate        = "date"
	FieldPlatform    = "platform"
	FieldCampaign    = "campaign_name"
	FieldAdSet       = "adset_name"
	FieldAd          = "ad_name"
	FieldKeyword     = "keyword"
	FieldCountry     = "country"
	FieldDevice      = "device"
	FieldCurrency    = "currency"
	FieldImpressions = "impressions"
	FieldClicks      = "clicks"
	FieldSpend       = "spend"
	FieldConversions = "conversions"
	FieldRevenue     = "revenue"
	FieldReach       = "reach"

	FieldCTR  = "ctr"
	FieldCPC  = "cpc"
	FieldCPM  = "cpm"
	FieldCPA  = "cpa"
	FieldROAS = "roas"
)

// FieldKind describes how a canonical field is parsed and defaulted.
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumeric
	KindDate
	KindDerived
)

// TextFields are the canonical string fields in output order.
var TextFields = []string{
	FieldPlatform, FieldCampaign, FieldAdSet, FieldAd,
	FieldKeyword, FieldCountry, FieldDevice, FieldCurrency,
}

// MetricFields are the additive numeric fields in output order.
var MetricFields = []string{
	FieldImpressions, FieldClicks, FieldSpend, FieldConversions, FieldRevenue, FieldReach,
}

// DerivedFields are computed by normalization and never read from input.
var DerivedFields = []string{FieldCTR, FieldCPC, FieldCPM, FieldCPA, FieldROAS}

// CoreFields are the minimum fields a complete marketing export carries.
var CoreFields = []string{
	FieldDate, FieldPlatform, FieldCampaign, FieldImpressions, FieldClicks,
	FieldSpend, FieldConversions, FieldRevenue, FieldCurrency,
}

// AllFields lists every canonical field in output order.
func AllFields() []string {
	fields := make([]string, 0, 1+len(TextFields)+len(MetricFields)+len(DerivedFields))
	fields = append(fields, FieldDate)
	fields = append(fields, TextFields...)
	fields = append(fields, MetricFields...)
	fields = append(fields, DerivedFields...)
	return fields
}

// KindOf returns the kind of a canonical field and whether the field exists.
func KindOf(field string) (FieldKind, bool) {
	if field == FieldDate {
		return KindDate, true
	}
	if contains(TextFields, field) {
		return KindText, true
	}
	if contains(MetricFields, field) {
		return KindNumeric, true
	}
	if contains(DerivedFields, field) {
		return KindDerived, true
	}
	return 0, false
}

// IsNumeric reports whether field holds a number, additive or derived.
func IsNumeric(field string) bool {
	kind, ok := KindOf(field)
	return ok && (kind == KindNumeric || kind == KindDerived)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
