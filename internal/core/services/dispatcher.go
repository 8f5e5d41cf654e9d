package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driving"
	"github.com/fieldwork-labs/centralsync/internal/logger"
)

// Ensure Dispatcher implements the interface.
var _ driving.SyncDispatcher = (*Dispatcher)(nil)

// Built-in command names a registration may declare.
const (
	CmdSynchronize           = "synchronize"
	CmdSynchronizeMonitoring = "synchronize-monitoring"
	CmdUpgrade               = "upgrade"
	CmdUpgradeMonitoring     = "upgrade-monitoring"
)

// commandFunc runs one pipeline variant against one form.
type commandFunc func(ctx context.Context, form *domain.RegisteredForm) error

// Dispatcher resolves each registered form's declared command name
// against a static command table, built once at construction, and drives
// the sequential sweep over all registrations.
type Dispatcher struct {
	forms    driven.FormStore
	commands map[domain.SyncIntent]map[string]commandFunc

	mu     sync.RWMutex
	pacing time.Duration
}

// NewDispatcher creates a dispatcher over the given pipelines. The
// pacing delay is a cooperative bound on the remote request rate, not a
// correctness requirement.
func NewDispatcher(
	forms driven.FormStore,
	publisher driving.Publisher,
	ingester driving.Ingester,
	pacing time.Duration,
) *Dispatcher {
	d := &Dispatcher{
		forms:  forms,
		pacing: pacing,
	}

	synchronize := func(ctx context.Context, form *domain.RegisteredForm) error {
		report := ingester.Ingest(ctx, form)
		if report.Err != nil {
			return report.Err
		}
		logger.Info("form %s synchronized: %d fetched, %d persisted, %d skipped",
			form.FormID, report.Fetched, report.Persisted, len(report.Skipped))
		return nil
	}

	upgrade := func(ctx context.Context, form *domain.RegisteredForm) error {
		// Skip flags default to all-false: export everything.
		report := publisher.Publish(ctx, form, domain.SkipFlags{})
		return report.Err
	}

	d.commands = map[domain.SyncIntent]map[string]commandFunc{
		domain.IntentSynchronize: {
			CmdSynchronize:           synchronize,
			CmdSynchronizeMonitoring: synchronize,
		},
		domain.IntentUpgrade: {
			CmdUpgrade:           upgrade,
			CmdUpgradeMonitoring: upgrade,
		},
	}
	return d
}

// Sweep runs the matching pipeline for every registered form, forms
// processed sequentially with the pacing delay in between. A form with
// no matching command for the intent is skipped silently; one form's
// failure never aborts the sweep over the remaining forms.
func (d *Dispatcher) Sweep(ctx context.Context, intent domain.SyncIntent) (*domain.SweepReport, error) {
	forms, err := d.forms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registered forms: %w", err)
	}

	report := &domain.SweepReport{
		Intent:    intent,
		StartedAt: time.Now(),
		Failures:  make(map[string]error),
	}

	for i := range forms {
		form := &forms[i]

		cmd, ok := d.resolve(intent, form)
		if !ok {
			logger.Debug("form %s declares no %s command, skipped", form.FormID, intent)
			report.SkippedForms = append(report.SkippedForms, form.ID)
			continue
		}

		logger.Info("---- %s: %s form %s ----", form.ModuleCode, intent, form.FormID)
		if err := cmd(ctx, d.invocation(form)); err != nil {
			logger.Error("%s of form %s failed: %v", intent, form.FormID, err)
			report.Failures[form.ID] = err
		}
		report.Processed++

		if err := d.pace(ctx, i == len(forms)-1); err != nil {
			report.EndedAt = time.Now()
			return report, err
		}
	}

	report.EndedAt = time.Now()
	return report, nil
}

// Dispatch runs the pipeline for a single registration.
func (d *Dispatcher) Dispatch(ctx context.Context, intent domain.SyncIntent, form *domain.RegisteredForm) error {
	cmd, ok := d.resolve(intent, form)
	if !ok {
		return fmt.Errorf("form %s declares no %s command: %w", form.FormID, intent, domain.ErrNotFound)
	}
	return cmd(ctx, d.invocation(form))
}

// resolve looks up the form's declared command name in the intent's table.
func (d *Dispatcher) resolve(intent domain.SyncIntent, form *domain.RegisteredForm) (commandFunc, bool) {
	name := form.CommandName(intent)
	if name == "" {
		return nil, false
	}
	cmd, ok := d.commands[intent][name]
	return cmd, ok
}

// invocation builds the form value a pipeline sees. Forms outside a
// monitoring module are invoked with project and form identifiers only,
// without module-scoped parameters.
func (d *Dispatcher) invocation(form *domain.RegisteredForm) *domain.RegisteredForm {
	if form.IsMonitoring() {
		return form
	}
	stripped := *form
	stripped.ModuleCode = ""
	return &stripped
}

// SetPacing adjusts the inter-form delay for subsequent sweeps. Safe to
// call while a sweep is running; the new delay applies from the next
// paced step.
func (d *Dispatcher) SetPacing(delay time.Duration) {
	d.mu.Lock()
	d.pacing = delay
	d.mu.Unlock()
}

// pace sleeps the inter-form delay unless the sweep is done or cancelled.
func (d *Dispatcher) pace(ctx context.Context, last bool) error {
	d.mu.RLock()
	pacing := d.pacing
	d.mu.RUnlock()

	if last || pacing <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(pacing):
		return nil
	}
}
