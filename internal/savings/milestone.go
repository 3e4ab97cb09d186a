package savings

// Milestones are the completion percentages that earn a one-time notification.
var Milestones = []int{25, 50, 75, 100}

// ReachedMilestone returns the highest milestone at or below percent, or 0.
func ReachedMilestone(percent float64) int {
	reached := 0
	for _, m := range Milestones {
		if percent >= float64(m) {
			reached = m
		}
	}
	return reached
}

// NewMilestone returns the highest milestone reached at percent that is above
// lastNotified, or 0 when there is nothing new to announce.
func NewMilestone(percent float64, lastNotified int) int {
	m := ReachedMilestone(percent)
	if m > lastNotified {
		return m
	}
	return 0
}
