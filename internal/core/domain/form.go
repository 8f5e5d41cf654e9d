package domain

import "time"

// ModuleType classifies the monitoring module a form belongs to.
// Monitoring modules receive module-scoped parameters when dispatched.
type ModuleType string

const (
	// ModuleTypeMonitoring marks a form bound to a monitoring module.
	ModuleTypeMonitoring ModuleType = "monitoring_module"

	// ModuleTypeGeneric marks a form with no module-specific parameters.
	ModuleTypeGeneric ModuleType = "generic"
)

// SyncIntent selects which pipeline a sweep runs per form.
type SyncIntent string

const (
	// IntentSynchronize ingests pending submissions from the remote service.
	IntentSynchronize SyncIntent = "synchronize"

	// IntentUpgrade republishes forms with fresh reference attachments.
	IntentUpgrade SyncIntent = "upgrade"
)

// RegisteredForm binds one monitoring form to a remote central project.
// Forms are created and edited by external configuration and are read-only
// to the pipelines. ProjectID and FormID must be non-empty and stable for
// the lifetime of a sync cycle.
type RegisteredForm struct {
	// ID is the unique identifier for this registration.
	ID string

	// ModuleCode is the local monitoring module the form belongs to.
	ModuleCode string

	// ModuleType governs which dispatch parameters apply.
	ModuleType ModuleType

	// ProjectID is the remote project identifier.
	ProjectID string

	// FormID is the remote form identifier.
	FormID string

	// SynchronizeCommand is the declared command name for submission
	// ingestion. Empty means the form does not support synchronization.
	SynchronizeCommand string

	// UpgradeCommand is the declared command name for form republishing.
	// Empty means the form does not support upgrades.
	UpgradeCommand string

	// TaxonListID selects the taxon list exported for this form.
	TaxonListID int

	// ObserverMenuID selects the observer roster exported for this form.
	ObserverMenuID int

	// CreatedAt is when the registration was created.
	CreatedAt time.Time

	// UpdatedAt is when the registration was last modified.
	UpdatedAt time.Time
}

// Validate checks the registration invariants.
func (f *RegisteredForm) Validate() error {
	if f.ProjectID == "" || f.FormID == "" {
		return ErrInvalidInput
	}
	return nil
}

// CommandName returns the declared command name for an intent.
// An empty return means the form does not support that intent.
func (f *RegisteredForm) CommandName(intent SyncIntent) string {
	switch intent {
	case IntentSynchronize:
		return f.SynchronizeCommand
	case IntentUpgrade:
		return f.UpgradeCommand
	}
	return ""
}

// IsMonitoring reports whether the form belongs to a monitoring module.
func (f *RegisteredForm) IsMonitoring() bool {
	return f.ModuleType == ModuleTypeMonitoring
}

// SkipFlags selects which reference datasets an upgrade omits.
// The zero value exports everything.
type SkipFlags struct {
	Taxa          bool
	Observers     bool
	Organizations bool
	Nomenclatures bool
}
