package mapping

// MappingFile represents the root of a YAML prefill table.
type MappingFile struct {
	// Version of the mapping schema (for future compatibility).
	Version string `yaml:"version,omitempty"`

	// Transitions lists the rules for each stage transition.
	Transitions []TransitionBlock `yaml:"transitions"`
}

// TransitionBlock groups the rules of one from->to transition.
type TransitionBlock struct {
	From   string      `yaml:"from"`
	To     string      `yaml:"to"`
	Fields []FieldRule `yaml:"fields"`
}

// FieldRule is the YAML form of one PrefillMapping.
type FieldRule struct {
	// ID documents the destination field, e.g. "FC-04".
	ID string `yaml:"id"`

	// Target is the destination field in the new stage.
	Target string `yaml:"target"`

	// SourceID documents where the value originates.
	SourceID string `yaml:"source_id,omitempty"`

	// Source is the snapshot key or history field the value is read from.
	// "stage.field" pins a chain or transform to one stage bucket.
	// Chain rules default to the target field.
	Source string `yaml:"source,omitempty"`

	// Strategy is one of direct, chain, transform, calculation, static, manual, blocked.
	Strategy string `yaml:"strategy"`

	// Description is a human-readable note shown in previews.
	Description string `yaml:"description,omitempty"`

	// Transform is the derivation registry key for transform and calculation rules.
	Transform string `yaml:"transform,omitempty"`

	// Value is the constant for static rules.
	Value any `yaml:"value,omitempty"`
}
