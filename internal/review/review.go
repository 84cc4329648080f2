// Package review implements the Review Panel Service (spec section
// 4.7): vote collection, weighted/unanimous/majority/any_critical/quorum
// aggregation, and outcome classification. No direct teacher
// equivalent exists; built in the teacher's idiom (explicit service
// struct, table-driven strategy dispatch) per spec section 9.
package review

import "github.com/flowcore/workflowcore/internal/models"

// AddVote records reviewerID's vote on panel, replacing any prior vote
// from the same reviewer (spec section 4.7 "Duplicate reviewer
// replaces prior vote").
func AddVote(panel *models.ReviewPanelExecution, vote models.Vote) {
	for i, v := range panel.Votes {
		if v.ReviewerID == vote.ReviewerID {
			panel.Votes[i] = vote
			return
		}
	}
	panel.Votes = append(panel.Votes, vote)
}

type tally struct {
	total, nonAbstain int
	critical, requestChanges, approve int
}

func tallyVotes(votes []models.Vote) tally {
	var t tally
	for _, v := range votes {
		w := v.Weight
		if w <= 0 {
			w = 1
		}
		t.total += w
		switch v.Vote {
		case models.VoteCritical:
			t.critical += w
			t.nonAbstain++
		case models.VoteRequestChanges:
			t.requestChanges += w
			t.nonAbstain++
		case models.VoteApprove:
			t.approve += w
			t.nonAbstain++
		case models.VoteAbstain:
			// excluded from weight sums and nonAbstain count
		}
	}
	return t
}

// Aggregate runs the aggregation algorithm described in spec section
// 4.7 and returns the classified outcome plus a human-readable summary.
func Aggregate(panel *models.ReviewPanelExecution) (models.Outcome, string) {
	cfg := panel.Config
	t := tallyVotes(panel.Votes)

	if cfg.Thresholds.Quorum > 0 && t.nonAbstain < cfg.Thresholds.Quorum {
		return models.OutcomeEscalate, "quorum not met"
	}

	criticalBlocks := models.DefaultCriticalBlocks
	if cfg.Thresholds.CriticalBlocks != nil {
		criticalBlocks = *cfg.Thresholds.CriticalBlocks
	}
	if criticalBlocks && t.critical > 0 {
		return models.OutcomeAddressCritical, summarize(panel.Votes)
	}

	switch cfg.Strategy {
	case models.StrategyUnanimous:
		if t.total > 0 && t.approve == t.total {
			return models.OutcomeApproved, summarize(panel.Votes)
		}
		return models.OutcomeQueueChanges, summarize(panel.Votes)

	case models.StrategyMajority:
		switch {
		case t.approve > t.requestChanges && t.approve > t.critical:
			return models.OutcomeApproved, summarize(panel.Votes)
		case t.requestChanges > t.approve && t.requestChanges > t.critical:
			return models.OutcomeQueueChanges, summarize(panel.Votes)
		case t.critical > t.approve && t.critical > t.requestChanges:
			return models.OutcomeAddressCritical, summarize(panel.Votes)
		default:
			return models.OutcomeEscalate, "tie"
		}

	case models.StrategyAnyCritical:
		return models.OutcomeApproved, summarize(panel.Votes)

	case models.StrategyQuorum:
		fallthrough
	case models.StrategyWeightedThreshold:
		fallthrough
	default:
		approveThreshold := models.DefaultApproveThreshold
		if cfg.Thresholds.ApproveThreshold != nil {
			approveThreshold = *cfg.Thresholds.ApproveThreshold
		}
		changesThreshold := models.DefaultChangesThreshold
		if cfg.Thresholds.ChangesThreshold != nil {
			changesThreshold = *cfg.Thresholds.ChangesThreshold
		}
		if t.total == 0 {
			return models.OutcomeEscalate, "no votes"
		}
		ratio := float64(t.approve) / float64(t.total)
		if ratio >= approveThreshold {
			return models.OutcomeApproved, summarize(panel.Votes)
		}
		if float64(t.requestChanges)/float64(t.total) >= changesThreshold {
			return models.OutcomeQueueChanges, summarize(panel.Votes)
		}
		return models.OutcomeEscalate, summarize(panel.Votes)
	}
}

func summarize(votes []models.Vote) string {
	var critical, other []models.Issue
	for _, v := range votes {
		for _, issue := range v.Issues {
			if issue.Severity == "critical" {
				critical = append(critical, issue)
			} else {
				other = append(other, issue)
			}
		}
	}
	return formatSummary(critical, other)
}

func formatSummary(critical, other []models.Issue) string {
	summary := ""
	if len(critical) > 0 {
		summary += "critical issues: "
		for i, issue := range critical {
			if i > 0 {
				summary += "; "
			}
			summary += issue.Message
		}
	}
	if len(other) > 0 {
		if summary != "" {
			summary += " | "
		}
		summary += "other issues: "
		for i, issue := range other {
			if i > 0 {
				summary += "; "
			}
			summary += issue.Message
		}
	}
	return summary
}
