package review

import (
	"strings"

	"github.com/flowcore/workflowcore/internal/models"
)

// ParseReviewerResponse extracts a vote, feedback, and issue list from a
// reviewer agent's free-text reply. The format is tolerant: a "VOTE:"
// line selects the verdict, a "FEEDBACK:" line (or the remaining text)
// becomes feedback, and "ISSUES:" lines of the form "severity: message"
// become Issue entries. An unparseable vote defaults to abstain, per
// spec section 4.7 "parser failures never block the panel."
func ParseReviewerResponse(text string) models.Vote {
	vote := models.Vote{Vote: models.VoteAbstain}
	var feedback []string
	var issues []models.Issue

	section := ""
	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		switch {
		case hasPrefixFold(line, "VOTE:"):
			vote.Vote = parseVoteValue(strings.TrimSpace(line[len("VOTE:"):]))
			section = ""
			continue
		case hasPrefixFold(line, "FEEDBACK:"):
			section = "feedback"
			rest := strings.TrimSpace(line[len("FEEDBACK:"):])
			if rest != "" {
				feedback = append(feedback, rest)
			}
			continue
		case hasPrefixFold(line, "ISSUES:"):
			section = "issues"
			rest := strings.TrimSpace(line[len("ISSUES:"):])
			if rest != "" {
				issues = append(issues, parseIssueLine(rest))
			}
			continue
		}

		switch section {
		case "issues":
			issues = append(issues, parseIssueLine(line))
		default:
			feedback = append(feedback, line)
		}
	}

	vote.Feedback = strings.Join(feedback, "\n")
	vote.Issues = issues
	return vote
}

func parseVoteValue(s string) models.VoteValue {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return models.VoteCritical
	case "request_changes", "request-changes", "changes":
		return models.VoteRequestChanges
	case "approve", "approved":
		return models.VoteApprove
	default:
		return models.VoteAbstain
	}
}

func parseIssueLine(line string) models.Issue {
	if idx := strings.Index(line, ":"); idx > 0 {
		sev := strings.ToLower(strings.TrimSpace(line[:idx]))
		switch sev {
		case "critical", "major", "minor", "nit":
			return models.Issue{Severity: sev, Message: strings.TrimSpace(line[idx+1:])}
		}
	}
	return models.Issue{Severity: "minor", Message: line}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
