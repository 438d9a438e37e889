package catalog

import "strings"

// NormalizeBarcode canonicalizes a scanned code for index lookup.
//
// Retail scanners emit the same product as JAN-8, UPC-A (12), EAN/JAN-13 or
// GTIN-14 depending on the symbology; all are the same number zero-padded to
// 14 digits, so the index stores the padded form. Codes that are not pure
// digits (internal SKUs, GS1-128 fragments) are kept as scanned, minus
// surrounding whitespace.
func NormalizeBarcode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return code
		}
	}
	if len(code) >= 14 {
		return code
	}
	return strings.Repeat("0", 14-len(code)) + code
}
