package service

import (
	"sort"

	"github.com/tandafin/lending-engine/internal/domain"
	customError "github.com/tandafin/lending-engine/pkg/errors"
)

// normalizeSplit rejects duplicate wallets and returns the lines ordered by
// wallet ID. Locking wallets in one global order keeps two transactions that
// touch the same wallets from deadlocking each other.
func normalizeSplit(split []domain.SplitLine) ([]domain.SplitLine, error) {
	seen := make(map[string]bool, len(split))
	for _, line := range split {
		key := line.WalletID.String()
		if seen[key] {
			return nil, customError.WrapValidation("split names wallet " + key + " more than once")
		}
		seen[key] = true
	}

	ordered := make([]domain.SplitLine, len(split))
	copy(ordered, split)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].WalletID.String() < ordered[j].WalletID.String()
	})

	return ordered, nil
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
