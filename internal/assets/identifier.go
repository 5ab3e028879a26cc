package assets

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	assetIDFormat = "A#%05d"

	// maxIDAttempts bounds the collision re-check loop. Hitting it means the
	// id space is corrupted, not that the caller did anything wrong.
	maxIDAttempts = 1000
)

var assetIDPattern = regexp.MustCompile(`^A#(\d+)$`)

// NextAssetID computes the next business identifier: the highest numeric
// suffix among existing ids (soft-deleted included) plus one, rendered as
// A# with a zero-padded 5-digit suffix.
//
// Identifier assignment is not atomic with the eventual insert, so the
// candidate is re-verified through exists immediately before returning and
// advanced on collision. The function itself does not serialize concurrent
// callers; the unique index on asset_id plus the orchestrator's
// retry-on-conflict covers the remaining window.
func NextAssetID(existing []string, exists func(string) (bool, error)) (string, error) {
	max := 0
	for _, id := range existing {
		m := assetIDPattern.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	candidate := max + 1
	for i := 0; i < maxIDAttempts; i++ {
		id := fmt.Sprintf(assetIDFormat, candidate)
		taken, err := exists(id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
		candidate++
	}
	return "", ErrExhaustedRetries
}
