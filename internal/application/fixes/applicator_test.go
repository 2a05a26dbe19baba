package fixes

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

type fakeBackend struct {
	outcome  domain.FixOutcome
	applyErr error
	fetchErr error
	raw      string

	applied []int
	fetches int
}

func (f *fakeBackend) ApplyFix(ctx context.Context, id domain.AnalysisID, index int, token string) (domain.FixOutcome, error) {
	f.applied = append(f.applied, index)
	return f.outcome, f.applyErr
}

func (f *fakeBackend) Fetch(ctx context.Context, id domain.AnalysisID, token string) (json.RawMessage, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return json.RawMessage(f.raw), nil
}

const twoFixes = `{"auto_fixes":[{"risk_title":"A","fixed":"a"},{"risk_title":"B","fixed":"b"}],"critical_risks":[{"title":"A"},{"title":"B"}]}`

func TestApplyAt_SuccessRefreshesOnce(t *testing.T) {
	b := &fakeBackend{
		outcome: domain.FixOutcome{Success: true, Message: "Fix applied", Details: "Updated db.go", NextSteps: "Review the PR"},
		raw:     `{"auto_fixes":[{"risk_title":"B","fixed":"b"}],"critical_risks":[{"title":"B"}]}`,
	}
	a := NewApplicator(b, zerolog.Nop())

	rep, err := a.ApplyAt(context.Background(), "a1", 0, "tok")
	require.NoError(t, err)
	assert.False(t, rep.Rejected())
	assert.NoError(t, rep.Err())
	assert.Equal(t, 1, b.fetches)
	require.NotNil(t, rep.Refreshed)
	assert.Len(t, rep.Refreshed.CriticalRisks, 1)
	assert.Equal(t, 75, domain.Score(rep.Refreshed))
	assert.Equal(t, "✅ Fix applied\n\nUpdated db.go\n\nReview the PR", rep.Notification())
}

func TestApplyAt_RejectedDoesNotRefresh(t *testing.T) {
	b := &fakeBackend{outcome: domain.FixOutcome{Success: false, Message: "Repository is archived"}}
	a := NewApplicator(b, zerolog.Nop())

	rep, err := a.ApplyAt(context.Background(), "a1", 1, "")
	require.NoError(t, err)
	assert.True(t, rep.Rejected())
	assert.Zero(t, b.fetches)
	assert.Nil(t, rep.Refreshed)
	assert.ErrorIs(t, rep.Err(), domain.ErrFixRejected)
	assert.Equal(t, domain.ClassFixRejected, domain.Classify(rep.Err()))
	assert.Equal(t, "❌ Failed to apply fix: Repository is archived", rep.Notification())
}

func TestApplyAt_TransportError(t *testing.T) {
	apiErr := &domain.APIError{Code: "HTTP_400", Message: "Invalid fix index", Status: 400}
	b := &fakeBackend{applyErr: apiErr}
	a := NewApplicator(b, zerolog.Nop())

	_, err := a.ApplyAt(context.Background(), "a1", 7, "")
	assert.ErrorIs(t, err, apiErr)
	assert.Zero(t, b.fetches)
}

func TestApplyAt_RefreshFailure(t *testing.T) {
	b := &fakeBackend{
		outcome:  domain.FixOutcome{Success: true, Message: "ok"},
		fetchErr: &domain.APIError{Code: domain.CodeNetwork, Message: "down"},
	}
	a := NewApplicator(b, zerolog.Nop())

	rep, err := a.ApplyAt(context.Background(), "a1", 0, "")
	require.Error(t, err)
	assert.True(t, rep.Outcome.Success, "the fix itself went through")
	assert.Nil(t, rep.Refreshed)
	assert.Equal(t, 1, b.fetches)
}

func TestApply_ResolvesStableID(t *testing.T) {
	current := domain.Normalize(json.RawMessage(twoFixes))
	b := &fakeBackend{outcome: domain.FixOutcome{Success: true, Message: "ok"}, raw: `{}`}
	a := NewApplicator(b, zerolog.Nop())

	rep, err := a.Apply(context.Background(), "a1", current.AutoFixes[1].ID, current, "")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, b.applied)
	assert.Equal(t, 1, rep.Index)
}

func TestApply_UnknownFix(t *testing.T) {
	current := domain.Normalize(json.RawMessage(twoFixes))
	b := &fakeBackend{}
	a := NewApplicator(b, zerolog.Nop())

	rep, err := a.Apply(context.Background(), "a1", "does-not-exist", current, "")
	assert.ErrorIs(t, err, domain.ErrFixNotFound)
	assert.Equal(t, -1, rep.Index)
	assert.Empty(t, b.applied)

	_, err = a.Apply(context.Background(), "a1", current.AutoFixes[0].ID, nil, "")
	assert.ErrorIs(t, err, domain.ErrFixNotFound)
}

func TestNotification_NoExtras(t *testing.T) {
	rep := Report{Outcome: domain.FixOutcome{Success: true, Message: "Fix applied"}}
	assert.Equal(t, "✅ Fix applied", rep.Notification())
}
