package review

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/flowcore/workflowcore/internal/models"
)

// ReviewerFn invokes one reviewer agent and returns its raw text reply.
type ReviewerFn func(ctx context.Context, reviewer models.Reviewer) (string, error)

// RunPanel drives every reviewer in panel.Config.Reviewers through fn,
// in parallel or sequentially per Config.Parallel, parses each reply
// with ParseReviewerResponse, and records the resulting votes on panel.
// A reviewer whose fn call errors (timeout, provider failure, panic
// recovered by the caller) is recorded as an abstain vote carrying the
// error as feedback, so one failing reviewer never blocks the panel
// (spec section 4.7 "Reviewer execution"). Fan-out is grounded on the
// errgroup pattern used across the example corpus for bounded parallel
// work; no single teacher file groups reviewers this way.
func RunPanel(ctx context.Context, panel *models.ReviewPanelExecution, fn ReviewerFn) (models.Outcome, string, error) {
	reviewers := panel.Config.Reviewers
	votes := make([]models.Vote, len(reviewers))

	if panel.Config.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, rv := range reviewers {
			i, rv := i, rv
			g.Go(func() error {
				votes[i] = runReviewer(gctx, rv, fn)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", "", err
		}
	} else {
		for i, rv := range reviewers {
			votes[i] = runReviewer(ctx, rv, fn)
		}
	}

	for _, v := range votes {
		AddVote(panel, v)
	}

	outcome, summary := Aggregate(panel)
	panel.Outcome = outcome
	panel.Summary = summary
	panel.Status = models.ReviewPanelCompleted
	return outcome, summary, nil
}

func runReviewer(ctx context.Context, rv models.Reviewer, fn ReviewerFn) models.Vote {
	text, err := fn(ctx, rv)
	if err != nil {
		return models.Vote{
			ReviewerID: rv.AgentID,
			Vote:       models.VoteAbstain,
			Feedback:   "reviewer error: " + err.Error(),
			Weight:     rv.Weight,
		}
	}
	v := ParseReviewerResponse(text)
	v.ReviewerID = rv.AgentID
	v.Weight = rv.Weight
	return v
}
