package notify

import (
	"fmt"

	"fintrack/internal/savings"
)

// MilestoneCandidate returns the notification for the highest milestone the goal
// has newly reached, along with that milestone. ok is false when nothing new
// was reached.
func MilestoneCandidate(goalID, goalName string, percent float64, lastNotified int) (c Candidate, milestone int, ok bool) {
	milestone = savings.NewMilestone(percent, lastNotified)
	if milestone == 0 {
		return Candidate{}, 0, false
	}

	c = Candidate{
		Title:     fmt.Sprintf("%d%% of %s saved", milestone, goalName),
		Message:   fmt.Sprintf("Your goal \"%s\" has reached %d%% of its target.", goalName, milestone),
		Type:      TypeInfo,
		ActionURL: "/goals/" + goalID,
		DedupeKey: fmt.Sprintf("goal:%s:milestone:%d", goalID, milestone),
	}
	if milestone == 100 {
		c.Title = "Goal reached: " + goalName
		c.Message = fmt.Sprintf("Congratulations! You have fully funded \"%s\".", goalName)
		c.Type = TypeSuccess
	}
	return c, milestone, true
}
