package repositories

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestHandlePQError(t *testing.T) {
	constraints := map[string]error{"players_email_key": ErrPlayerEmailConflict}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"unique violation mapped", &pq.Error{Code: "23505", Constraint: "players_email_key"}, ErrPlayerEmailConflict},
		{"insufficient privilege", &pq.Error{Code: "42501", Message: "denied"}, ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := handlePQError(tt.err, constraints)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("unmapped constraint passes through", func(t *testing.T) {
		raw := &pq.Error{Code: "23505", Constraint: "other_key"}
		got := handlePQError(raw, constraints)
		var pqErr *pq.Error
		assert.True(t, errors.As(got, &pqErr))
	})
}

func TestPodiumSlot(t *testing.T) {
	assert.Equal(t, "final", *podiumSlot(" FINAL"))
	assert.Equal(t, "third-place", *podiumSlot("bronze-match"))
	assert.Nil(t, podiumSlot("semi-final"))
}
