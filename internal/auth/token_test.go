package auth

import (
	"testing"
	"time"

	"sosstock/internal/domain"
	"sosstock/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfile() *model.Profile {
	return &model.Profile{ID: uuid.New(), Email: "ops@example.com", Role: domain.RoleOperator}
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("secret", time.Hour, 24*time.Hour)
	p := testProfile()

	tok, issued, err := iss.Issue(p, KindAccess)
	require.NoError(t, err)

	claims, err := iss.Parse(tok, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, p.ID, claims.ProfileID())
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "operator", claims.Role)
	assert.InDelta(t, time.Hour.Seconds(), claims.Remaining(time.Now()).Seconds(), 5)
}

func TestIssuer_RejectsWrongKind(t *testing.T) {
	iss := NewIssuer("secret", time.Hour, 24*time.Hour)
	refresh, _, err := iss.Issue(testProfile(), KindRefresh)
	require.NoError(t, err)

	_, err = iss.Parse(refresh, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsExpiredAndForeign(t *testing.T) {
	iss := NewIssuer("secret", time.Minute, time.Hour)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	tok, _, err := iss.Issue(testProfile(), KindAccess)
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Parse(tok, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewIssuer("other-secret", time.Hour, time.Hour)
	tok, _, err = other.Issue(testProfile(), KindAccess)
	require.NoError(t, err)
	_, err = iss.Parse(tok, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
