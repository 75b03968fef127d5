package customer

import (
	"encoding/json"
	"fmt"
	"os"

	contractx "github.com/paylane/collections-agent/agent/contract"
)

type directoryDocument struct {
	Customers []Profile `json:"customers"`
}

// LoadDirectory reads the customer directory document. A missing or
// unreadable directory is fatal to the caller: no conversation may start
// without it.
func LoadDirectory(path string) ([]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", contractx.ErrDirectory, path, err)
	}

	var doc directoryDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", contractx.ErrDirectory, path, err)
	}
	if len(doc.Customers) == 0 {
		return nil, fmt.Errorf("%w: %s lists no customers", contractx.ErrDirectory, path)
	}

	for i := range doc.Customers {
		if err := doc.Customers[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", contractx.ErrDirectory, i, err)
		}
	}

	return doc.Customers, nil
}
