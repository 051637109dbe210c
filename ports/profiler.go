package ports

import (
	"context"

	"datalens/domain/profile"
)

// Profiler analyzes a dataset and produces the profiling artifact consumed by
// everything downstream.
type Profiler interface {
	ProfileDataset(ctx context.Context, ds *profile.Dataset) (*profile.DatasetProfile, error)
}

// RuleGenerator derives human-readable validation rules for a column from its
// own statistics.
type RuleGenerator interface {
	GenerateRules(col *profile.Column) profile.RuleSet
}

// ReferenceRuleGenerator derives validation rules for a target column by
// comparing it against a mapped column in a reference dataset.
type ReferenceRuleGenerator interface {
	DeriveRules(target, reference *profile.Column) profile.RuleSet
	DeriveForMapping(target, reference *profile.Dataset, mapping profile.ReferenceMapping) []profile.RuleSet
}
