package guestcart

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// RecordName is the single named record a guest cart is kept under.
	RecordName = "guest_cart"
	// FormatVersion tags every stored payload so the format can migrate.
	FormatVersion = "v1"
)

type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Record is the anonymous cart. Items keep insertion order and hold each
// product at most once.
type Record struct {
	Items        []Item    `json:"lineItems"`
	LastModified time.Time `json:"lastModified"`
}

func (r Record) IsEmpty() bool {
	return len(r.Items) == 0
}

func (r Record) Quantity(productID string) int {
	for _, it := range r.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

// payloadV1 is what lives in storage under FormatVersion.
type payloadV1 struct {
	Name  string `json:"name"`
	Items []Item `json:"lineItems"`
}

func encode(r Record) ([]byte, error) {
	return json.Marshal(payloadV1{Name: RecordName, Items: r.Items})
}

func decode(version string, payload []byte, modified time.Time) (Record, error) {
	if version != FormatVersion {
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownVersion, version)
	}

	var p payloadV1
	if err := json.Unmarshal(payload, &p); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptedRecord, err)
	}
	if p.Name != RecordName {
		return Record{}, fmt.Errorf("%w: unexpected record %q", ErrCorruptedRecord, p.Name)
	}

	seen := make(map[string]struct{}, len(p.Items))
	for _, it := range p.Items {
		if it.ProductID == "" || it.Quantity < 1 {
			return Record{}, fmt.Errorf("%w: invalid item", ErrCorruptedRecord)
		}
		if _, dup := seen[it.ProductID]; dup {
			return Record{}, fmt.Errorf("%w: duplicate product %q", ErrCorruptedRecord, it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
	}

	return Record{Items: p.Items, LastModified: modified}, nil
}
