package openalex

import "strings"

// TrailingID extrahiert die nackte ID aus einer OpenAlex-URL, also das
// letzte Pfadsegment (z.B. "https://openalex.org/W123" -> "W123").
func TrailingID(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	trimmed := strings.TrimRight(rawURL, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// StripDOIPrefix entfernt das führende "https://doi.org/" von einer DOI.
func StripDOIPrefix(doi string) string {
	return strings.TrimPrefix(doi, "https://doi.org/")
}

// StripORCIDPrefix reduziert eine ORCID-URL auf den nackten Identifier.
func StripORCIDPrefix(orcid string) string {
	if idx := strings.LastIndex(orcid, "orcid.org/"); idx >= 0 {
		return orcid[idx+len("orcid.org/"):]
	}
	return orcid
}
