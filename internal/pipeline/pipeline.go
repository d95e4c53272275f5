// Package pipeline declares the medallion pipeline that materializes the
// served customer table. Declarations are data handed to the managed
// runtime, which owns merge, checkpoint, and storage semantics.
package pipeline

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ExpectationAction says what the runtime does with rows that violate an
// expectation.
type ExpectationAction string

const (
	ExpectWarn ExpectationAction = "warn" // keep the row, count the violation
	ExpectDrop ExpectationAction = "drop" // drop the row
	ExpectFail ExpectationAction = "fail" // fail the update
)

// Expectation is a named data-quality constraint on a table.
type Expectation struct {
	Name       string            `yaml:"name"`
	Constraint string            `yaml:"constraint"`
	Action     ExpectationAction `yaml:"action"`
}

// TableSpec declares one materialized table.
type TableSpec struct {
	Name            string            `yaml:"name"`
	Comment         string            `yaml:"comment,omitempty"`
	TableProperties map[string]string `yaml:"table_properties,omitempty"`
	SparkConf       map[string]string `yaml:"spark_conf,omitempty"`
	ClusterByAuto   bool              `yaml:"cluster_by_auto,omitempty"`
	Expectations    []Expectation     `yaml:"expectations,omitempty"`

	// Shaping of an upstream table; empty for tables fed directly.
	Source        string            `yaml:"source,omitempty"`
	Filter        string            `yaml:"filter,omitempty"`
	DropColumns   []string          `yaml:"drop_columns,omitempty"`
	RenameColumns map[string]string `yaml:"rename_columns,omitempty"`
}

// StreamingTableSpec declares a streaming table, the target of a CDC flow.
type StreamingTableSpec struct {
	TableSpec `yaml:",inline"`
}

// AutoCDCFlow declares change-data capture from a source table into a
// streaming target.
type AutoCDCFlow struct {
	Target            string   `yaml:"target"`
	Source            string   `yaml:"source"`
	Keys              []string `yaml:"keys"`
	SequenceBy        string   `yaml:"sequence_by"`
	IgnoreNullUpdates bool     `yaml:"ignore_null_updates"`
	ExceptColumns     []string `yaml:"except_column_list,omitempty"`
	SCDType           string   `yaml:"stored_as_scd_type"`
}

// Pipeline is a complete declaration set.
type Pipeline struct {
	Name            string               `yaml:"name"`
	Tables          []TableSpec          `yaml:"tables,omitempty"`
	StreamingTables []StreamingTableSpec `yaml:"streaming_tables,omitempty"`
	Flows           []AutoCDCFlow        `yaml:"flows,omitempty"`
}

// Validate checks the declaration set for internal consistency.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}

	declared := map[string]bool{}
	streaming := map[string]bool{}
	addTable := func(spec TableSpec) error {
		if spec.Name == "" {
			return fmt.Errorf("pipeline %s: table name is required", p.Name)
		}
		if declared[spec.Name] {
			return fmt.Errorf("pipeline %s: duplicate table %s", p.Name, spec.Name)
		}
		declared[spec.Name] = true
		for _, exp := range spec.Expectations {
			if exp.Name == "" || exp.Constraint == "" {
				return fmt.Errorf("table %s: expectation needs a name and a constraint", spec.Name)
			}
			switch exp.Action {
			case ExpectWarn, ExpectDrop, ExpectFail:
			default:
				return fmt.Errorf("table %s: unknown expectation action %q", spec.Name, exp.Action)
			}
		}
		return nil
	}

	for _, spec := range p.Tables {
		if err := addTable(spec); err != nil {
			return err
		}
	}
	for _, spec := range p.StreamingTables {
		if err := addTable(spec.TableSpec); err != nil {
			return err
		}
		streaming[spec.Name] = true
	}

	for _, spec := range p.Tables {
		if spec.Source != "" && !declared[spec.Source] {
			return fmt.Errorf("table %s: unknown source %s", spec.Name, spec.Source)
		}
	}

	for _, flow := range p.Flows {
		if !streaming[flow.Target] {
			return fmt.Errorf("flow into %s: target must be a declared streaming table", flow.Target)
		}
		if !declared[flow.Source] {
			return fmt.Errorf("flow into %s: unknown source %s", flow.Target, flow.Source)
		}
		if len(flow.Keys) == 0 {
			return fmt.Errorf("flow into %s: keys are required", flow.Target)
		}
		if flow.SequenceBy == "" {
			return fmt.Errorf("flow into %s: sequence_by is required", flow.Target)
		}
		if flow.SCDType != "1" && flow.SCDType != "2" {
			return fmt.Errorf("flow into %s: stored_as_scd_type must be 1 or 2, got %q", flow.Target, flow.SCDType)
		}
	}
	return nil
}

// RenderYAML renders the declaration set as a YAML manifest.
func (p *Pipeline) RenderYAML() ([]byte, error) {
	return yaml.Marshal(p)
}

// LoadYAML parses and validates a YAML manifest.
func LoadYAML(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pipeline manifest: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
