package review

import (
	"testing"

	"github.com/flowcore/workflowcore/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestAggregate_WeightedThreshold(t *testing.T) {
	tests := []struct {
		name    string
		votes   []models.Vote
		config  models.ReviewPanelConfig
		outcome models.Outcome
	}{
		{
			name: "all approve clears default threshold",
			votes: []models.Vote{
				{ReviewerID: "a", Vote: models.VoteApprove, Weight: 1},
				{ReviewerID: "b", Vote: models.VoteApprove, Weight: 1},
			},
			config:  models.ReviewPanelConfig{Strategy: models.StrategyWeightedThreshold},
			outcome: models.OutcomeApproved,
		},
		{
			name: "majority request_changes queues changes",
			votes: []models.Vote{
				{ReviewerID: "a", Vote: models.VoteRequestChanges, Weight: 1},
				{ReviewerID: "b", Vote: models.VoteRequestChanges, Weight: 1},
				{ReviewerID: "c", Vote: models.VoteApprove, Weight: 1},
			},
			config:  models.ReviewPanelConfig{Strategy: models.StrategyWeightedThreshold},
			outcome: models.OutcomeQueueChanges,
		},
		{
			name: "a single critical blocks regardless of strategy",
			votes: []models.Vote{
				{ReviewerID: "a", Vote: models.VoteCritical, Weight: 1},
				{ReviewerID: "b", Vote: models.VoteApprove, Weight: 5},
			},
			config:  models.ReviewPanelConfig{Strategy: models.StrategyWeightedThreshold},
			outcome: models.OutcomeAddressCritical,
		},
		{
			name: "critical_blocks disabled lets the weighted vote decide",
			votes: []models.Vote{
				{ReviewerID: "a", Vote: models.VoteCritical, Weight: 1},
				{ReviewerID: "b", Vote: models.VoteApprove, Weight: 5},
			},
			config: models.ReviewPanelConfig{
				Strategy:   models.StrategyWeightedThreshold,
				Thresholds: models.Thresholds{CriticalBlocks: ptr(false)},
			},
			outcome: models.OutcomeEscalate,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			panel := &models.ReviewPanelExecution{Config: tc.config}
			for _, v := range tc.votes {
				AddVote(panel, v)
			}
			outcome, _ := Aggregate(panel)
			if outcome != tc.outcome {
				t.Errorf("Aggregate() outcome = %v, want %v", outcome, tc.outcome)
			}
		})
	}
}

func TestAggregate_Unanimous(t *testing.T) {
	panel := &models.ReviewPanelExecution{Config: models.ReviewPanelConfig{Strategy: models.StrategyUnanimous}}
	AddVote(panel, models.Vote{ReviewerID: "a", Vote: models.VoteApprove, Weight: 1})
	AddVote(panel, models.Vote{ReviewerID: "b", Vote: models.VoteRequestChanges, Weight: 1})

	outcome, _ := Aggregate(panel)
	if outcome != models.OutcomeQueueChanges {
		t.Fatalf("Aggregate() = %v, want queue_changes", outcome)
	}
}

func TestAggregate_Quorum(t *testing.T) {
	panel := &models.ReviewPanelExecution{Config: models.ReviewPanelConfig{
		Strategy:   models.StrategyWeightedThreshold,
		Thresholds: models.Thresholds{Quorum: 3},
	}}
	AddVote(panel, models.Vote{ReviewerID: "a", Vote: models.VoteApprove, Weight: 1})
	AddVote(panel, models.Vote{ReviewerID: "b", Vote: models.VoteAbstain, Weight: 1})

	outcome, summary := Aggregate(panel)
	if outcome != models.OutcomeEscalate {
		t.Fatalf("Aggregate() = %v, want escalate (quorum unmet)", outcome)
	}
	if summary != "quorum not met" {
		t.Fatalf("summary = %q", summary)
	}
}

func TestAddVote_ReplacesDuplicateReviewer(t *testing.T) {
	panel := &models.ReviewPanelExecution{}
	AddVote(panel, models.Vote{ReviewerID: "a", Vote: models.VoteApprove})
	AddVote(panel, models.Vote{ReviewerID: "a", Vote: models.VoteCritical})

	if len(panel.Votes) != 1 {
		t.Fatalf("len(Votes) = %d, want 1", len(panel.Votes))
	}
	if panel.Votes[0].Vote != models.VoteCritical {
		t.Fatalf("Votes[0].Vote = %v, want critical (latest vote should win)", panel.Votes[0].Vote)
	}
}

func TestParseReviewerResponse(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantVote models.VoteValue
		wantLen  int
	}{
		{
			name:     "vote and feedback only",
			text:     "VOTE: approve\nFEEDBACK: looks good to me",
			wantVote: models.VoteApprove,
		},
		{
			name:     "vote with issues",
			text:     "VOTE: request_changes\nFEEDBACK: needs work\nISSUES:\ncritical: missing nil check\nminor: typo in comment",
			wantVote: models.VoteRequestChanges,
			wantLen:  2,
		},
		{
			name:     "unparseable vote defaults to abstain",
			text:     "I'm not sure what to make of this",
			wantVote: models.VoteAbstain,
		},
		{
			name:     "case-insensitive vote keyword",
			text:     "vote: Critical\nfeedback: this will break production",
			wantVote: models.VoteCritical,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := ParseReviewerResponse(tc.text)
			if v.Vote != tc.wantVote {
				t.Errorf("Vote = %v, want %v", v.Vote, tc.wantVote)
			}
			if tc.wantLen > 0 && len(v.Issues) != tc.wantLen {
				t.Errorf("len(Issues) = %d, want %d", len(v.Issues), tc.wantLen)
			}
		})
	}
}
