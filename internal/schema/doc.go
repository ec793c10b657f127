// Package schema holds the canonical marketing schema and the per-platform column mappings
// that feed normalization.
//
// # Registry
//
// A Registry maps each supported advertising platform to the raw column names it uses for every
// canonical field. Lookups compare normalized keys (lower-cased, parenthesised suffixes such as
// "(USD)" removed, punctuation and whitespace removed) so "Amount spent (USD)", "amount_spent"
// and "AmountSpent" resolve identically.
//
// The default registry is built in code and is read-only once constructed. A YAML file can
// extend it at startup:
//
//	version: "2024.2"
//	platforms:
//	  meta:
//	    signature: [campaign name, ad set name]
//	    columns:
//	      spend: [amount spent eur]
//	generic:
//	  revenue: [gross revenue]
//
// # Detection
//
// Detector scores every platform by the share of its signature columns found in a header and
// returns the best match, or PlatformUnknown when nothing reaches the threshold:
//
//	det := schema.NewDetector(schema.Default(), schema.DefaultDetectionThreshold)
//	result := det.Detect([]string{"Campaign", "Clicks", "Impressions", "Cost"})
//	// result.Platform == schema.PlatformGoogleAds
package schema
