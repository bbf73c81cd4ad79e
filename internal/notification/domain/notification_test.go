package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		notif   Notification
		wantErr bool
	}{
		{
			name:  "global without community",
			notif: Notification{RecipientID: "user-1", Scope: ScopeGlobal},
		},
		{
			name:    "global with community",
			notif:   Notification{RecipientID: "user-1", Scope: ScopeGlobal, CommunityID: strPtr("comm-1")},
			wantErr: true,
		},
		{
			name:  "community with community",
			notif: Notification{RecipientID: "user-1", Scope: ScopeCommunity, CommunityID: strPtr("comm-1")},
		},
		{
			name:    "community without community",
			notif:   Notification{RecipientID: "user-1", Scope: ScopeCommunity},
			wantErr: true,
		},
		{
			name:    "community with empty community",
			notif:   Notification{RecipientID: "user-1", Scope: ScopeCommunity, CommunityID: strPtr("")},
			wantErr: true,
		},
		{
			name:    "missing recipient",
			notif:   Notification{Scope: ScopeGlobal},
			wantErr: true,
		},
		{
			name:    "unknown scope",
			notif:   Notification{RecipientID: "user-1", Scope: "galaxy"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.notif.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeFriendRequest, ParseType("friend_request"))
	assert.Equal(t, TypeInvite, ParseType("invite"))
	assert.Equal(t, TypeMention, ParseType("mention"))
	assert.Equal(t, TypeSystem, ParseType("system"))

	// Anything unknown folds into the forward-compatible bucket.
	assert.Equal(t, TypeOther, ParseType("other"))
	assert.Equal(t, TypeOther, ParseType("poke"))
	assert.Equal(t, TypeOther, ParseType(""))
}
