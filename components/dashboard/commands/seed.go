package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// SeedTemplatesInput controls bootstrap behavior.
type SeedTemplatesInput struct {
	// Manifests are extra widget manifest files registered before seeding.
	Manifests []string `json:"manifests,omitempty"`
}

// SeedTemplatesCommand registers manifest widgets and seeds the starter
// dashboard templates when the store holds none.
type SeedTemplatesCommand struct {
	registry  *dashboard.Registry
	service   *dashboard.Service
	telemetry Telemetry
}

// NewSeedTemplatesCommand wires dependencies. registry may be nil when no
// manifests are loaded.
func NewSeedTemplatesCommand(registry *dashboard.Registry, service *dashboard.Service, telemetry Telemetry) *SeedTemplatesCommand {
	return &SeedTemplatesCommand{
		registry:  registry,
		service:   service,
		telemetry: normalizeTelemetry(telemetry),
	}
}

var _ gocommand.Commander[SeedTemplatesInput] = (*SeedTemplatesCommand)(nil)

// Execute runs the bootstrap pipeline.
func (c *SeedTemplatesCommand) Execute(ctx context.Context, msg SeedTemplatesInput) error {
	if c.service == nil {
		return errors.New("seed command requires service")
	}
	if len(msg.Manifests) > 0 && c.registry == nil {
		return errors.New("seed command requires a registry to load manifests")
	}
	for _, path := range msg.Manifests {
		if _, err := c.registry.LoadManifestFile(path); err != nil {
			return err
		}
	}
	if err := dashboard.SeedTemplates(ctx, c.service); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.seed", map[string]any{"manifests": len(msg.Manifests)})
	return nil
}
