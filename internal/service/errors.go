package service

import "errors"

// Pipeline failure taxonomy. All of these are fatal for the document
// they occur on and surface to the caller; enrichment degradation is
// handled inside EnrichService and never becomes an error.
var (
	// ErrDocumentNotFound means the referenced key is absent from the
	// object store.
	ErrDocumentNotFound = errors.New("document not found in object store")

	// ErrMissingOwner means the stored object carries no owning user id
	// in its metadata, so the transactions cannot be attributed.
	ErrMissingOwner = errors.New("object metadata missing owning user id")

	// ErrUnreadableDocument means text extraction failed. A document
	// that extracts fine but yields zero transactions is not in this
	// category.
	ErrUnreadableDocument = errors.New("document could not be read as text")
)
