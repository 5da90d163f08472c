// Package exposures provides the built-in rules for dbt exposures.
package exposures

import (
	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

// Namespace of the exposure rules.
const Namespace = lint.BuiltinNamespace + ".exposures"

func init() {
	lint.RegisterRule(ExposureHasDescription)
	lint.RegisterRule(ExposureHasOwner)
	lint.RegisterRule(ExposureHasURL)
}

// ExposureHasDescription requires an exposure description.
var ExposureHasDescription = lint.Define(Namespace, lint.RuleSpec{
	Name:        "exposure_has_description",
	Description: "An exposure should have a description.",
}, func(_ *lint.Context, e *manifest.Exposure) (*lint.Violation, error) {
	if e.Description == "" {
		return lint.Violationf("Exposure lacks a description."), nil
	}
	return nil, nil
})

// ExposureHasOwner requires an owner name or email.
var ExposureHasOwner = lint.Define(Namespace, lint.RuleSpec{
	Name:        "exposure_has_owner",
	Description: "An exposure should have an owner with a name or an email.",
}, func(_ *lint.Context, e *manifest.Exposure) (*lint.Violation, error) {
	if e.Owner.Name == "" && e.Owner.Email == "" {
		return lint.Violationf("Exposure lacks an owner."), nil
	}
	return nil, nil
})

// ExposureHasURL asks for a link to the exposed asset.
var ExposureHasURL = lint.Define(Namespace, lint.RuleSpec{
	Name:        "exposure_has_url",
	Description: "An exposure should link to the asset it describes.",
	Severity:    core.SeverityLow,
}, func(_ *lint.Context, e *manifest.Exposure) (*lint.Violation, error) {
	if e.URL == "" {
		return lint.Violationf("Exposure lacks a URL."), nil
	}
	return nil, nil
})
