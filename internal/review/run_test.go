package review

import (
	"context"
	"errors"
	"testing"

	"github.com/flowcore/workflowcore/internal/models"
)

func TestRunPanel_SequentialApproval(t *testing.T) {
	panel := &models.ReviewPanelExecution{Config: models.ReviewPanelConfig{
		Strategy: models.StrategyWeightedThreshold,
		Reviewers: []models.Reviewer{
			{AgentID: "reviewer-a", Weight: 1},
			{AgentID: "reviewer-b", Weight: 1},
		},
	}}

	outcome, _, err := RunPanel(context.Background(), panel, func(ctx context.Context, r models.Reviewer) (string, error) {
		return "VOTE: approve\nFEEDBACK: fine", nil
	})
	if err != nil {
		t.Fatalf("RunPanel() error = %v", err)
	}
	if outcome != models.OutcomeApproved {
		t.Fatalf("outcome = %v, want approved", outcome)
	}
	if len(panel.Votes) != 2 {
		t.Fatalf("len(Votes) = %d, want 2", len(panel.Votes))
	}
}

func TestRunPanel_ParallelWithFailingReviewerAbstains(t *testing.T) {
	panel := &models.ReviewPanelExecution{Config: models.ReviewPanelConfig{
		Strategy: models.StrategyWeightedThreshold,
		Parallel: true,
		Reviewers: []models.Reviewer{
			{AgentID: "reviewer-a", Weight: 1},
			{AgentID: "reviewer-failing", Weight: 1},
		},
	}}

	outcome, _, err := RunPanel(context.Background(), panel, func(ctx context.Context, r models.Reviewer) (string, error) {
		if r.AgentID == "reviewer-failing" {
			return "", errors.New("provider timeout")
		}
		return "VOTE: approve", nil
	})
	if err != nil {
		t.Fatalf("RunPanel() error = %v", err)
	}
	if outcome != models.OutcomeApproved {
		t.Fatalf("outcome = %v, want approved (one abstain should not block)", outcome)
	}

	var failingVote models.Vote
	for _, v := range panel.Votes {
		if v.ReviewerID == "reviewer-failing" {
			failingVote = v
		}
	}
	if failingVote.Vote != models.VoteAbstain {
		t.Fatalf("failing reviewer vote = %v, want abstain", failingVote.Vote)
	}
	if panel.Status != models.ReviewPanelCompleted {
		t.Fatalf("panel.Status = %v, want completed", panel.Status)
	}
}
