// Package importers turns institution statement exports into ledger
// transactions. Each institution gets one Importer; files are matched
// by sniffing headers, never by filename.
package importers

import (
	"context"
	"fmt"

	"github.com/Ulthran/ctbus-finance/internal/common"
	"github.com/Ulthran/ctbus-finance/internal/model"
)

// Importer extracts ledger transactions from one institution's export
// format.
//
// Identify sniffs the file's header or column set and must never fail:
// any read or parse problem means "not mine" so the scan can move on to
// the next importer. Extract re-parses the file; row-level policy
// (fail fast vs log-and-skip) is the importer's own, per institution.
type Importer interface {
	Name() string
	Identify(path string) bool
	Extract(ctx context.Context, path string) ([]model.Transaction, error)
}

// Find scans importers in order and returns the first that claims the
// file. When none does, the error wraps common.ErrNoImporter.
func Find(importers []Importer, path string) (Importer, error) {
	for _, imp := range importers {
		if imp.Identify(path) {
			return imp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", common.ErrNoImporter, path)
}
