package scene

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// BlobRef is the content hash of a stored text blob. The empty ref stands
// for empty text.
type BlobRef string

// BlobStore keeps raw text blocks deduplicated by content hash.
type BlobStore struct {
	texts map[BlobRef]string
}

// NewBlobStore returns an empty store.
func NewBlobStore() *BlobStore {
	return &BlobStore{texts: make(map[BlobRef]string)}
}

// StoreText stores text and returns its reference.
func (b *BlobStore) StoreText(text string) BlobRef {
	if text == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(text))
	ref := BlobRef(hex.EncodeToString(sum[:16]))
	b.texts[ref] = text
	return ref
}

// Text returns the text stored under ref.
func (b *BlobStore) Text(ref BlobRef) (string, bool) {
	if ref == "" {
		return "", true
	}
	text, ok := b.texts[ref]
	return text, ok
}

// Len returns the number of distinct blobs.
func (b *BlobStore) Len() int {
	return len(b.texts)
}
