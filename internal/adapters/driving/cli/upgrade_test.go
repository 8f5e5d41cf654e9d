package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

// cliMockPublisher implements driving.Publisher for testing.
type cliMockPublisher struct {
	report *domain.PublishReport
	seen   []string
	skip   domain.SkipFlags
}

func (m *cliMockPublisher) Publish(_ context.Context, form *domain.RegisteredForm, skip domain.SkipFlags) *domain.PublishReport {
	m.seen = append(m.seen, form.ID)
	m.skip = skip
	if m.report != nil {
		return m.report
	}
	return &domain.PublishReport{
		FormID:  form.FormID,
		Version: "20260301T120000.000000000Z",
		Attachments: []domain.AttachmentResult{
			{FileName: "stom_taxons.csv", Outcome: domain.AttachmentApplied},
			{FileName: "stom_observers.csv", Outcome: domain.AttachmentApplied},
		},
	}
}

func setupUpgradeTest(t *testing.T) (*cliMockPublisher, func()) {
	t.Helper()

	_, cleanupBase := setupCLITest(t)

	oldPublisher := publisher
	mock := &cliMockPublisher{}
	publisher = mock

	upgradeSkip = domain.SkipFlags{}

	return mock, func() {
		publisher = oldPublisher
		cleanupBase()
	}
}

func TestUpgradeCmd_Use(t *testing.T) {
	assert.Equal(t, "upgrade [registration-id]", upgradeCmd.Use)
}

func TestUpgradeCmd_Short(t *testing.T) {
	assert.Equal(t, "Republish forms with fresh reference data", upgradeCmd.Short)
}

func TestUpgradeCmd_ExecutesWithoutArgs(t *testing.T) {
	mock, cleanup := setupUpgradeTest(t)
	defer cleanup()

	out, err := executeCommand("upgrade")

	assert.NoError(t, err)
	assert.Contains(t, out, "Upgrading all registered forms...")
	assert.Contains(t, out, "Processed 2 forms")
	assert.Empty(t, mock.seen)
}

func TestUpgradeCmd_ExecutesWithRegistrationID(t *testing.T) {
	mock, cleanup := setupUpgradeTest(t)
	defer cleanup()

	out, err := executeCommand("upgrade", "reg-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "Form stom-visits published as version 20260301T120000.000000000Z")
	assert.Contains(t, out, "(2 attachments, 0 rejected)")
	assert.Equal(t, []string{"reg-1"}, mock.seen)
}

func TestUpgradeCmd_SkipFlagsForwarded(t *testing.T) {
	mock, cleanup := setupUpgradeTest(t)
	defer cleanup()

	_, err := executeCommand("upgrade", "reg-1", "--skip-taxa", "--skip-nomenclatures")

	assert.NoError(t, err)
	assert.True(t, mock.skip.Taxa)
	assert.True(t, mock.skip.Nomenclatures)
	assert.False(t, mock.skip.Observers)
	assert.False(t, mock.skip.Organizations)
}

func TestUpgradeCmd_PublishFailure(t *testing.T) {
	mock, cleanup := setupUpgradeTest(t)
	defer cleanup()
	mock.report = &domain.PublishReport{
		FormID: "stom-visits",
		Err:    domain.ErrRemoteUnavailable,
	}

	_, err := executeCommand("upgrade", "reg-1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "upgrade failed")
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestUpgradeCmd_SweepError(t *testing.T) {
	mock, cleanup := setupCLITest(t)
	defer cleanup()
	mock.sweepErr = errors.New("remote down")

	_, err := executeCommand("upgrade")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "upgrade failed")
}

func TestUpgradeCmd_ServiceNotConfigured(t *testing.T) {
	oldDispatcher := dispatcher
	dispatcher = nil
	defer func() { dispatcher = oldDispatcher }()

	err := runUpgrade(upgradeCmd, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "upgrade service not configured")
}
