package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwork-labs/centralsync/internal/adapters/driven/storage/memory"
	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

// --- Mock implementations for dispatcher testing ---

// dispatchMockPublisher implements driving.Publisher, recording invocations.
type dispatchMockPublisher struct {
	seen    []domain.RegisteredForm
	failFor map[string]error
}

func (m *dispatchMockPublisher) Publish(_ context.Context, form *domain.RegisteredForm, _ domain.SkipFlags) *domain.PublishReport {
	m.seen = append(m.seen, *form)
	report := &domain.PublishReport{FormID: form.FormID, Version: "v1"}
	if err, ok := m.failFor[form.ID]; ok {
		report.Err = err
	}
	return report
}

// dispatchMockIngester implements driving.Ingester, recording invocations.
type dispatchMockIngester struct {
	seen    []domain.RegisteredForm
	failFor map[string]error
}

func (m *dispatchMockIngester) Ingest(_ context.Context, form *domain.RegisteredForm) *domain.IngestReport {
	m.seen = append(m.seen, *form)
	report := &domain.IngestReport{FormID: form.FormID, Skipped: map[string]error{}}
	if err, ok := m.failFor[form.ID]; ok {
		report.Err = err
	}
	return report
}

func dispatcherFixture(t *testing.T, forms ...domain.RegisteredForm) (*Dispatcher, *dispatchMockPublisher, *dispatchMockIngester) {
	t.Helper()
	store := memory.NewFormStore()
	for _, f := range forms {
		require.NoError(t, store.Save(context.Background(), f))
	}
	publisher := &dispatchMockPublisher{failFor: map[string]error{}}
	ingester := &dispatchMockIngester{failFor: map[string]error{}}
	return NewDispatcher(store, publisher, ingester, 0), publisher, ingester
}

func monitoringForm(id string) domain.RegisteredForm {
	return domain.RegisteredForm{
		ID:                 id,
		ModuleCode:         "STOM",
		ModuleType:         domain.ModuleTypeMonitoring,
		ProjectID:          "1",
		FormID:             "form-" + id,
		SynchronizeCommand: CmdSynchronizeMonitoring,
		UpgradeCommand:     CmdUpgradeMonitoring,
	}
}

func TestDispatcher_Sweep_Synchronize(t *testing.T) {
	d, publisher, ingester := dispatcherFixture(t,
		monitoringForm("reg-1"),
		monitoringForm("reg-2"),
	)

	report, err := d.Sweep(context.Background(), domain.IntentSynchronize)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Processed)
	assert.Empty(t, report.Failures)
	assert.Len(t, ingester.seen, 2)
	assert.Empty(t, publisher.seen)
}

func TestDispatcher_Sweep_Upgrade(t *testing.T) {
	d, publisher, ingester := dispatcherFixture(t, monitoringForm("reg-1"))

	report, err := d.Sweep(context.Background(), domain.IntentUpgrade)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Len(t, publisher.seen, 1)
	assert.Empty(t, ingester.seen)
}

func TestDispatcher_Sweep_SkipsFormsWithoutCommand(t *testing.T) {
	noSync := monitoringForm("reg-silent")
	noSync.SynchronizeCommand = ""

	d, _, ingester := dispatcherFixture(t, monitoringForm("reg-1"), noSync)

	report, err := d.Sweep(context.Background(), domain.IntentSynchronize)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, []string{"reg-silent"}, report.SkippedForms)
	assert.Empty(t, report.Failures)
	assert.Len(t, ingester.seen, 1)
}

func TestDispatcher_Sweep_UnknownCommandSkipped(t *testing.T) {
	odd := monitoringForm("reg-odd")
	odd.SynchronizeCommand = "resynchronize"

	d, _, ingester := dispatcherFixture(t, odd)

	report, err := d.Sweep(context.Background(), domain.IntentSynchronize)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, []string{"reg-odd"}, report.SkippedForms)
	assert.Empty(t, ingester.seen)
}

func TestDispatcher_Sweep_FailureContainment(t *testing.T) {
	d, _, ingester := dispatcherFixture(t,
		monitoringForm("reg-1"),
		monitoringForm("reg-2"),
		monitoringForm("reg-3"),
	)
	failure := fmt.Errorf("%w: 503", domain.ErrRemoteUnavailable)
	ingester.failFor["reg-2"] = failure

	report, err := d.Sweep(context.Background(), domain.IntentSynchronize)
	require.NoError(t, err)

	// All three forms ran despite the middle one failing
	assert.Equal(t, 3, report.Processed)
	assert.Len(t, ingester.seen, 3)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures["reg-2"], domain.ErrRemoteUnavailable)
}

func TestDispatcher_Sweep_GenericFormInvokedWithoutModuleCode(t *testing.T) {
	generic := domain.RegisteredForm{
		ID:                 "reg-gen",
		ModuleCode:         "MISC",
		ModuleType:         domain.ModuleTypeGeneric,
		ProjectID:          "2",
		FormID:             "standalone",
		SynchronizeCommand: CmdSynchronize,
	}

	d, _, ingester := dispatcherFixture(t, generic)

	_, err := d.Sweep(context.Background(), domain.IntentSynchronize)
	require.NoError(t, err)

	require.Len(t, ingester.seen, 1)
	invoked := ingester.seen[0]
	assert.Empty(t, invoked.ModuleCode)
	assert.Equal(t, "2", invoked.ProjectID)
	assert.Equal(t, "standalone", invoked.FormID)
}

func TestDispatcher_Sweep_MonitoringFormKeepsModuleCode(t *testing.T) {
	d, _, ingester := dispatcherFixture(t, monitoringForm("reg-1"))

	_, err := d.Sweep(context.Background(), domain.IntentSynchronize)
	require.NoError(t, err)

	require.Len(t, ingester.seen, 1)
	assert.Equal(t, "STOM", ingester.seen[0].ModuleCode)
}

func TestDispatcher_Dispatch_SingleForm(t *testing.T) {
	form := monitoringForm("reg-1")
	d, publisher, _ := dispatcherFixture(t, form)

	err := d.Dispatch(context.Background(), domain.IntentUpgrade, &form)
	require.NoError(t, err)
	assert.Len(t, publisher.seen, 1)
}

func TestDispatcher_Dispatch_NoCommand(t *testing.T) {
	form := monitoringForm("reg-1")
	form.UpgradeCommand = ""
	d, _, _ := dispatcherFixture(t, form)

	err := d.Dispatch(context.Background(), domain.IntentUpgrade, &form)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDispatcher_Sweep_EmptyStore(t *testing.T) {
	d, _, _ := dispatcherFixture(t)

	report, err := d.Sweep(context.Background(), domain.IntentSynchronize)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
	assert.Empty(t, report.Failures)
}
