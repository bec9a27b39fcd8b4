package weights

import (
	"context"
	"fmt"

	"github.com/studyloop/churn-risk-engine/pkg/service"
)

// AuditRecord is one history entry joined against the version it applied.
// The update transaction persists the weight version before the history
// entry, so a crash in between leaves a version with no audit record;
// History surfaces that window instead of hiding it.
type AuditRecord struct {
	Version int
	Entry   *service.WeightHistoryEntry

	// AppliedWithoutFullAudit marks a persisted version that has no
	// matching history entry.
	AppliedWithoutFullAudit bool
}

// History returns up to limit audit records, newest version first,
// flagging any version that was applied without a history entry.
func (a *Accessor) History(ctx context.Context, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	latest, err := a.store.GetLatestVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest weight version: %w", err)
	}

	entries, err := a.store.ListHistory(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list weight history: %w", err)
	}

	byVersion := make(map[int]*service.WeightHistoryEntry, len(entries))
	for i := range entries {
		byVersion[entries[i].Version] = &entries[i]
	}

	records := make([]AuditRecord, 0, limit)
	for version := latest; version >= 1 && len(records) < limit; version-- {
		if entry, ok := byVersion[version]; ok {
			records = append(records, AuditRecord{Version: version, Entry: entry})
			continue
		}

		// Distinguish "never persisted" (allocation that failed before
		// the version write) from "persisted without audit".
		if _, err := a.store.GetWeights(ctx, version); err != nil {
			continue
		}
		records = append(records, AuditRecord{Version: version, AppliedWithoutFullAudit: true})
	}

	return records, nil
}
