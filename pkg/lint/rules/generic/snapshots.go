package generic

import (
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

func init() {
	lint.RegisterRule(SnapshotHasUniqueKey)
	lint.RegisterRule(SnapshotHasStrategy)
}

// SnapshotHasUniqueKey requires config.unique_key on a snapshot.
var SnapshotHasUniqueKey = lint.Define(Namespace, lint.RuleSpec{
	Name:        "snapshot_has_unique_key",
	Description: "A snapshot should have a unique key.",
}, func(_ *lint.Context, s *manifest.Snapshot) (*lint.Violation, error) {
	if !s.HasConfig("unique_key") {
		return lint.Violationf("Snapshot lacks a unique key."), nil
	}
	return nil, nil
})

// SnapshotHasStrategy requires config.strategy on a snapshot.
var SnapshotHasStrategy = lint.Define(Namespace, lint.RuleSpec{
	Name:        "snapshot_has_strategy",
	Description: "A snapshot should have a strategy.",
}, func(_ *lint.Context, s *manifest.Snapshot) (*lint.Violation, error) {
	if !s.HasConfig("strategy") {
		return lint.Violationf("Snapshot lacks a strategy."), nil
	}
	return nil, nil
})
