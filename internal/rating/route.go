package rating

// Route selects the stage 2 scoring variant.
type Route string

const (
	RouteA Route = "A"
	RouteB Route = "B"
)

// Stage1Answer holds the three yes/no routing answers.
type Stage1Answer struct {
	Q1 bool `json:"q1" yaml:"q1"`
	Q2 bool `json:"q2" yaml:"q2"`
	Q3 bool `json:"q3" yaml:"q3"`
}

// Route applies DetermineRoute to the answer.
func (a Stage1Answer) Route(threshold int) Route {
	return DetermineRoute(a.Q1, a.Q2, a.Q3, threshold)
}

// DetermineRoute returns RouteA when at least threshold of the answers are
// affirmative and RouteB otherwise. A threshold of 0 always selects RouteA.
func DetermineRoute(q1, q2, q3 bool, threshold int) Route {
	yes := 0
	for _, v := range [...]bool{q1, q2, q3} {
		if v {
			yes++
		}
	}
	if yes >= threshold {
		return RouteA
	}
	return RouteB
}
