// Package fleetfile loads fleet snapshots from YAML or JSON files.
package fleetfile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/fleet"
)

// Provider reads the snapshot from Path on every Load, so edits to the file
// are picked up by the next run.
type Provider struct {
	Path string
}

// New returns a Provider for path.
func New(path string) *Provider { return &Provider{Path: path} }

// Load implements fleet.Provider.
func (p *Provider) Load(ctx context.Context) (fleet.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return fleet.Snapshot{}, err
	}
	f, err := os.Open(p.Path)
	if err != nil {
		return fleet.Snapshot{}, apperr.Unavailable(err, "open fleet file")
	}
	defer func() { _ = f.Close() }()
	return Decode(f, strings.TrimPrefix(filepath.Ext(p.Path), "."))
}

// Decode reads a snapshot from r in the given format ("yaml", "yml" or "json").
// Unreadable input is DataUnavailable; readable input with invalid values is
// InvalidArgument.
func Decode(r io.Reader, format string) (fleet.Snapshot, error) {
	var snap fleet.Snapshot
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
			return fleet.Snapshot{}, apperr.Unavailable(err, "decode yaml fleet")
		}
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&snap); err != nil {
			return fleet.Snapshot{}, apperr.Unavailable(err, "decode json fleet")
		}
	default:
		return fleet.Snapshot{}, apperr.Unavailable(fmt.Errorf("unsupported format: %s", format), "decode fleet")
	}
	if err := snap.Validate(); err != nil {
		return fleet.Snapshot{}, err
	}
	return snap, nil
}
