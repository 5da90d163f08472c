package core

// ResourceType tags the kind of manifest entity a rule or filter applies to.
type ResourceType string

// Resource types that can be evaluated.
const (
	ResourceModel    ResourceType = "model"
	ResourceSource   ResourceType = "source"
	ResourceSnapshot ResourceType = "snapshot"
	ResourceSeed     ResourceType = "seed"
	ResourceExposure ResourceType = "exposure"
	ResourceMacro    ResourceType = "macro"
)

// ResourceTypes lists every evaluable type in evaluation order.
var ResourceTypes = []ResourceType{
	ResourceModel,
	ResourceSource,
	ResourceSnapshot,
	ResourceSeed,
	ResourceExposure,
	ResourceMacro,
}

// ParseResourceType converts a manifest resource_type tag to a ResourceType.
func ParseResourceType(s string) (ResourceType, bool) {
	for _, t := range ResourceTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}
