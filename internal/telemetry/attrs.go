package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute constructors for weir's domain fields. Use these instead
// of raw attribute keys so span attributes stay consistent across services.

// PipelineName returns an attribute for a pipeline's unique name.
func PipelineName(name string) attribute.KeyValue {
	return attribute.String("pipeline.name", name)
}

// PipelineID returns an attribute for a pipeline identity.
func PipelineID(id string) attribute.KeyValue {
	return attribute.String("pipeline.id", id)
}
