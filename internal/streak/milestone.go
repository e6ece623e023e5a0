package streak

// Milestone is a streak length that earns a badge.
type Milestone struct {
	Days  int    `json:"days"`
	Title string `json:"title"`
}

var milestones = []Milestone{
	{Days: 7, Title: "Achiever"},
	{Days: 14, Title: "Dedicated"},
	{Days: 30, Title: "Champion"},
}

// milestoneInterval spaces milestones beyond the last named one.
const milestoneInterval = 30

// NextMilestone returns the next milestone above the current streak length.
func NextMilestone(current int) Milestone {
	for _, m := range milestones {
		if m.Days > current {
			return m
		}
	}
	days := (current/milestoneInterval + 1) * milestoneInterval
	return Milestone{Days: days, Title: "Champion"}
}

// Reached returns the milestone exactly matching streak, if any.
func Reached(streak int) (Milestone, bool) {
	for _, m := range milestones {
		if m.Days == streak {
			return m, true
		}
	}
	last := milestones[len(milestones)-1].Days
	if streak > last && streak%milestoneInterval == 0 {
		return Milestone{Days: streak, Title: "Champion"}, true
	}
	return Milestone{}, false
}

// Crossed returns the milestones reached when a streak moves from before
// to after.
func Crossed(before, after int) []Milestone {
	var out []Milestone
	for n := before + 1; n <= after; n++ {
		if m, ok := Reached(n); ok {
			out = append(out, m)
		}
	}
	return out
}
