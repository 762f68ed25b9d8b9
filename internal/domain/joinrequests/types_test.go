package joinrequests

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransition(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		want    Status
		wantErr bool
	}{
		{StatusPending, StatusApproved, StatusApproved, false},
		{StatusPending, StatusRejected, StatusRejected, false},
		{StatusApproved, StatusApproved, StatusApproved, false},
		{StatusRejected, StatusRejected, StatusRejected, false},
		{StatusApproved, StatusRejected, StatusApproved, true},
		{StatusRejected, StatusApproved, StatusRejected, true},
		{StatusApproved, StatusPending, StatusApproved, true},
		{StatusPending, StatusPending, StatusPending, true},
		{StatusPending, Status("cancelled"), StatusPending, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			got, err := tt.from.Transition(tt.to)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, Status("bogus").Valid())
}
