// Package manifest parses and serializes the YAML manifest format: one
// document per automation, declaring triggers, permissions, budgets and
// tool bindings. YAML handling follows the internal/config/loader.go
// convention of gopkg.in/yaml.v3 over older yaml.v2 usage elsewhere.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Trigger is the tagged union over {folder_changed, schedule, event}.
// Only the fields relevant to Type are populated; others are zero.
type Trigger struct {
	Type string `yaml:"type"`

	// folder_changed
	Path string `yaml:"path,omitempty"`

	// schedule
	Cron string `yaml:"cron,omitempty"`

	// event
	EventName string `yaml:"event_name,omitempty"`
}

// Permissions declares the capability surface a manifest's automation may
// exercise.
type Permissions struct {
	FSRead  []string `yaml:"fs_read,omitempty"`
	FSWrite []string `yaml:"fs_write,omitempty"`
	Network bool     `yaml:"network,omitempty"`
	Sensors []string `yaml:"sensors,omitempty"`
}

// Budgets bounds the runtime cost of a manifest's automation. Pointer fields
// distinguish "unset" from an explicit zero.
type Budgets struct {
	SolverWakePerHour      *int `yaml:"solver_wake_per_hour,omitempty"`
	MaxSSDWritesPerDayMB   *int `yaml:"max_ssd_writes_per_day_mb,omitempty"`
	MaxExecutionTimeMillis *int `yaml:"max_execution_time_ms,omitempty"`
}

// Manifest is one parsed YAML automation document. Unknown fields are
// accepted and ignored by yaml.v3's default decode behavior; omitted
// optional sections decode to their zero value.
type Manifest struct {
	ID                    string      `yaml:"id"`
	Version               string      `yaml:"version,omitempty"`
	Triggers              []Trigger   `yaml:"triggers,omitempty"`
	Permissions           Permissions `yaml:"permissions,omitempty"`
	Budgets               Budgets     `yaml:"budgets,omitempty"`
	Tools                 []string    `yaml:"tools,omitempty"`
	UISurfaces            []string    `yaml:"ui_surfaces,omitempty"`
	IdentityRequirements  []string    `yaml:"identity_requirements,omitempty"`
	RemoteAccess          bool        `yaml:"remote_access,omitempty"`
}

// ErrMissingID is returned when a manifest document omits the required id
// field.
var ErrMissingID = fmt.Errorf("manifest: missing required field %q", "id")

// Parse decodes a YAML document into a Manifest. A document with an empty
// or missing id fails with ErrMissingID.
func Parse(raw []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest: parse: %w", err)
	}
	if m.ID == "" {
		return Manifest{}, ErrMissingID
	}
	return m, nil
}

// Serialize re-encodes a Manifest as canonical YAML. Round-tripping
// Parse(Serialize(m)) reproduces m for any well-formed m: yaml.v3 encodes
// struct fields in declaration order and omits empty optional fields
// identically to how they'd decode from an omitted section.
func Serialize(m Manifest) ([]byte, error) {
	out, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("manifest: serialize: %w", err)
	}
	return out, nil
}

// Hash computes the manifest_hash: SHA-256 of the canonical re-serialized
// YAML, hex-encoded.
func Hash(m Manifest) (string, error) {
	raw, err := Serialize(m)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
