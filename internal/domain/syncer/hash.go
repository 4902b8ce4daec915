package syncer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/telcobench/transit/internal/domain/model"
)

// ContentHash computes the dedup key for a submission: a SHA-256 over the
// canonical serialized form of the scores, model identifier, and date.
// Field order is fixed so the same content always hashes identically.
func ContentHash(sub model.Submission) string {
	var b strings.Builder
	b.WriteString(sub.ModelIdentifier)
	b.WriteByte('|')
	b.WriteString(sub.SubmittedAt.Format(model.DateLayout))

	benches := make([]string, 0, len(sub.Scores))
	for bench := range sub.Scores {
		benches = append(benches, bench)
	}
	sort.Strings(benches)
	for _, bench := range benches {
		cell := sub.Scores[bench]
		fmt.Fprintf(&b, "|%s:%g:%g:%d", bench, cell.Score, cell.Stderr, cell.NSamples)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
