package domain

import "strings"

// DocumentExt is the required suffix of corpus identifiers.
const DocumentExt = ".gpx"

// ValidateDocumentID checks that id is a plain file name ending in .gpx.
func ValidateDocumentID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalidf("document id must not be empty")
	}
	if strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) || strings.HasPrefix(id, ".") {
		return invalidf("document id %q is not a plain file name", id)
	}
	if !strings.HasSuffix(strings.ToLower(id), DocumentExt) || len(id) == len(DocumentExt) {
		return invalidf("document id %q must end in %s", id, DocumentExt)
	}
	return nil
}
