package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    MatchStatus
		to      MatchStatus
		allowed bool
	}{
		{name: "pending to accepted", from: MatchPending, to: MatchAccepted, allowed: true},
		{name: "pending to rejected", from: MatchPending, to: MatchRejected, allowed: true},
		{name: "accepted is terminal", from: MatchAccepted, to: MatchRejected, allowed: false},
		{name: "rejected is terminal", from: MatchRejected, to: MatchAccepted, allowed: false},
		{name: "no self transition", from: MatchPending, to: MatchPending, allowed: false},
		{name: "accepted cannot revert", from: MatchAccepted, to: MatchPending, allowed: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			match := Match{Status: tc.from}
			err := match.SetStatus(tc.to)
			if tc.allowed {
				require.NoError(t, err)
				require.Equal(t, tc.to, match.Status)
			} else {
				require.Error(t, err)
				require.Equal(t, tc.from, match.Status)
			}
		})
	}
}

func TestMatchSetStatusRejectsUnknownState(t *testing.T) {
	match := Match{Status: MatchPending}
	require.Error(t, match.SetStatus(MatchStatus("archived")))
	require.Equal(t, MatchPending, match.Status)
}

func TestMatchRecipientOf(t *testing.T) {
	match := Match{StudentID: 1, LandlordID: 2}
	require.Equal(t, uint(2), match.RecipientOf(1))
	require.Equal(t, uint(1), match.RecipientOf(2))
	require.True(t, match.HasParticipant(1))
	require.True(t, match.HasParticipant(2))
	require.False(t, match.HasParticipant(3))
}
