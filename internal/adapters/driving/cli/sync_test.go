package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwork-labs/centralsync/internal/adapters/driven/storage/memory"
	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/services"
)

// cliMockDispatcher implements driving.SyncDispatcher for testing.
type cliMockDispatcher struct {
	sweepErr    error
	dispatchErr error
	swept       []domain.SyncIntent
	dispatched  []string
}

func (m *cliMockDispatcher) Sweep(_ context.Context, intent domain.SyncIntent) (*domain.SweepReport, error) {
	m.swept = append(m.swept, intent)
	if m.sweepErr != nil {
		return nil, m.sweepErr
	}
	now := time.Now()
	return &domain.SweepReport{
		Intent:    intent,
		StartedAt: now,
		EndedAt:   now.Add(10 * time.Millisecond),
		Processed: 2,
	}, nil
}

func (m *cliMockDispatcher) Dispatch(_ context.Context, _ domain.SyncIntent, form *domain.RegisteredForm) error {
	m.dispatched = append(m.dispatched, form.ID)
	return m.dispatchErr
}

func validTestSettings() *domain.Settings {
	s := domain.DefaultSettings()
	s.Central.BaseURL = "https://central.test"
	s.Central.Username = "sync@example.org"
	s.PacingDelay = 0
	return &s
}

func testRegistration() domain.RegisteredForm {
	return domain.RegisteredForm{
		ID:                 "reg-1",
		ModuleCode:         "STOM",
		ModuleType:         domain.ModuleTypeMonitoring,
		ProjectID:          "4",
		FormID:             "stom-visits",
		SynchronizeCommand: services.CmdSynchronizeMonitoring,
		UpgradeCommand:     services.CmdUpgradeMonitoring,
	}
}

// setupCLITest swaps in a mock dispatcher, a seeded in-memory form store
// and valid settings, returning the mock and a restore func.
func setupCLITest(t *testing.T) (*cliMockDispatcher, func()) {
	t.Helper()

	oldDispatcher := dispatcher
	oldStore := formStore
	oldSettings := settings

	mock := &cliMockDispatcher{}
	dispatcher = mock

	fs := memory.NewFormStore()
	require.NoError(t, fs.Save(context.Background(), testRegistration()))
	formStore = fs

	settings = validTestSettings()

	return mock, func() {
		dispatcher = oldDispatcher
		formStore = oldStore
		settings = oldSettings
	}
}

func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [registration-id]", syncCmd.Use)
}

func TestSyncCmd_Short(t *testing.T) {
	assert.Equal(t, "Pull pending submissions from the Central server", syncCmd.Short)
}

func TestSyncCmd_Long(t *testing.T) {
	assert.Contains(t, syncCmd.Long, "synchronize sweep")
	assert.Contains(t, syncCmd.Long, "registration ID")
}

func TestSyncCmd_ExecutesWithoutArgs(t *testing.T) {
	mock, cleanup := setupCLITest(t)
	defer cleanup()

	out, err := executeCommand("sync")

	assert.NoError(t, err)
	assert.Contains(t, out, "Synchronizing all registered forms...")
	assert.Contains(t, out, "Processed 2 forms")
	assert.Equal(t, []domain.SyncIntent{domain.IntentSynchronize}, mock.swept)
}

func TestSyncCmd_ExecutesWithRegistrationID(t *testing.T) {
	mock, cleanup := setupCLITest(t)
	defer cleanup()

	out, err := executeCommand("sync", "reg-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "Form stom-visits synchronized.")
	assert.Equal(t, []string{"reg-1"}, mock.dispatched)
}

func TestSyncCmd_UnknownRegistration(t *testing.T) {
	_, cleanup := setupCLITest(t)
	defer cleanup()

	_, err := executeCommand("sync", "reg-missing")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "registration reg-missing")
}

func TestSyncCmd_ServiceNotConfigured(t *testing.T) {
	oldDispatcher := dispatcher
	dispatcher = nil
	defer func() { dispatcher = oldDispatcher }()

	err := runSync(syncCmd, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sync service not configured")
}

func TestSyncCmd_SweepError(t *testing.T) {
	mock, cleanup := setupCLITest(t)
	defer cleanup()
	mock.sweepErr = errors.New("remote down")

	_, err := executeCommand("sync")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
}

func TestSyncCmd_DispatchError(t *testing.T) {
	mock, cleanup := setupCLITest(t)
	defer cleanup()
	mock.dispatchErr = errors.New("remote down")

	_, err := executeCommand("sync", "reg-1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
}

func TestSyncCmd_UnconfiguredRemote(t *testing.T) {
	_, cleanup := setupCLITest(t)
	defer cleanup()

	oldConfigStore := configStore
	defer func() { configStore = oldConfigStore }()

	cs, err := newTestConfigStore(t)
	require.NoError(t, err)
	configStore = cs

	settings.Central.BaseURL = ""

	_, err = executeCommand("sync")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "set central.base_url and central.username")
}
