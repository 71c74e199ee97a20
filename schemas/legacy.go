package schemas

import "net/url"

// legacyNames maps historical foreign key spellings to the canonical ones.
var legacyNames = map[string]string{
	"userID":   "userId",
	"sensorId": "sensorID",
}

// NormalizeLegacyFields rewrites legacy keys of a JSON object in place.
// When both spellings are present the canonical one wins.
func NormalizeLegacyFields(doc map[string]any) {
	for legacy, canonical := range legacyNames {
		value, ok := doc[legacy]
		if !ok {
			continue
		}
		delete(doc, legacy)
		if _, exists := doc[canonical]; !exists {
			doc[canonical] = value
		}
	}
}

// NormalizeLegacyQuery does the same for query strings.
func NormalizeLegacyQuery(values url.Values) {
	for legacy, canonical := range legacyNames {
		value, ok := values[legacy]
		if !ok {
			continue
		}
		values.Del(legacy)
		if _, exists := values[canonical]; !exists {
			values[canonical] = value
		}
	}
}
