// Package provision lazily creates team partitions and their header rows.
package provision

import (
	"context"

	apperrors "recruit-intake/internal/common/errors"
	"recruit-intake/internal/common/logger"
	"recruit-intake/internal/common/metrics"
	"recruit-intake/internal/store"
	"recruit-intake/pkg/registry"
)

// Alerter receives best-effort operator alerts when provisioning leaves a
// partition without its header.
type Alerter interface {
	AlertDegradedPartition(ctx context.Context, team, partition, reason string)
}

type Provisioner struct {
	store    store.TabularStore
	registry *registry.Registry
	alerter  Alerter
	logger   logger.Logger
}

// NewProvisioner creates a provisioner. alerter may be nil.
func NewProvisioner(st store.TabularStore, reg *registry.Registry, alerter Alerter, log logger.Logger) *Provisioner {
	return &Provisioner{
		store:    st,
		registry: reg,
		alerter:  alerter,
		logger:   log.WithFields(map[string]interface{}{"component": "provisioner"}),
	}
}

// EnsurePartition makes sure the team's partition exists. On first creation
// it writes the header row and applies formatting. Idempotent: when the
// partition already exists nothing beyond the existence check runs.
//
// Failures after creation leave the partition in a degraded state (present
// but headerless or unformatted). That state is logged and alerted, never
// rolled back; appends still function and Repair reconciles the header.
func (p *Provisioner) EnsurePartition(ctx context.Context, slug string) error {
	d, ok := p.registry.BySlug(slug)
	if !ok {
		return apperrors.NewInvalidTeamError(slug)
	}

	names, err := p.store.ListPartitions(ctx)
	if err != nil {
		return apperrors.NewStoreUnavailableError("list-partitions", err)
	}
	for _, name := range names {
		if name == d.DisplayName {
			return nil
		}
	}

	if err := p.store.CreatePartition(ctx, d.DisplayName, 1); err != nil {
		return apperrors.NewStoreUnavailableError("create-partition", err)
	}
	metrics.PartitionsProvisioned.WithLabelValues(d.DisplayName).Inc()

	p.logger.Info("partition provisioned", map[string]interface{}{
		"team":      d.Slug,
		"partition": d.DisplayName,
	})

	if err := p.store.WriteRow(ctx, d.DisplayName, registry.HeaderRowIndex, d.Headers()); err != nil {
		// The partition exists but has no header. Appends still land, so the
		// submission proceeds and an operator reconciles via Repair.
		p.logger.Error("header write failed, partition is degraded", map[string]interface{}{
			"team":      d.Slug,
			"partition": d.DisplayName,
			"error":     err.Error(),
		})
		if p.alerter != nil {
			p.alerter.AlertDegradedPartition(ctx, d.Slug, d.DisplayName, err.Error())
		}
		return nil
	}

	p.applyFormatting(ctx, d)
	return nil
}

// Repair reconciles a degraded partition: it creates the partition if absent
// and writes the header row if missing. Safe to run repeatedly; an existing
// header is never rewritten.
func (p *Provisioner) Repair(ctx context.Context, slug string) error {
	d, ok := p.registry.BySlug(slug)
	if !ok {
		return apperrors.NewInvalidTeamError(slug)
	}

	if err := p.store.CreatePartition(ctx, d.DisplayName, 1); err != nil {
		return apperrors.NewStoreUnavailableError("create-partition", err)
	}
	if err := p.store.WriteRow(ctx, d.DisplayName, registry.HeaderRowIndex, d.Headers()); err != nil {
		return apperrors.NewStoreUnavailableError("write-header", err)
	}
	p.applyFormatting(ctx, d)

	p.logger.Info("partition repaired", map[string]interface{}{
		"team":      d.Slug,
		"partition": d.DisplayName,
	})
	return nil
}

// applyFormatting is cosmetic; failures are swallowed and logged.
func (p *Provisioner) applyFormatting(ctx context.Context, d *registry.TeamDescriptor) {
	if err := p.store.ApplyHeaderFormatting(ctx, d.DisplayName); err != nil {
		p.logger.Warn("header formatting failed", map[string]interface{}{
			"partition": d.DisplayName,
			"error":     err.Error(),
		})
	}
}
