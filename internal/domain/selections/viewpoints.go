package selections

// The five competency dimensions members assess themselves against. Order is
// fixed; the CSV export and admin views rely on it.
const (
	ViewpointFacilitation = "facilitation"
	ViewpointCurriculum   = "curriculum"
	ViewpointAssessment   = "assessment"
	ViewpointTechnology   = "technology"
	ViewpointCommunity    = "community"
)

const (
	MinStep = 1
	MaxStep = 4
)

var viewpoints = []string{
	ViewpointFacilitation,
	ViewpointCurriculum,
	ViewpointAssessment,
	ViewpointTechnology,
	ViewpointCommunity,
}

var stepLabels = map[int]string{
	1: "Exploring",
	2: "Practicing",
	3: "Integrating",
	4: "Leading",
}

// Viewpoints returns the fixed, ordered viewpoint list.
func Viewpoints() []string {
	out := make([]string, len(viewpoints))
	copy(out, viewpoints)
	return out
}

func IsValidViewpoint(value string) bool {
	for _, v := range viewpoints {
		if v == value {
			return true
		}
	}
	return false
}

func IsValidStep(step int) bool {
	return step >= MinStep && step <= MaxStep
}

// StepLabel returns the display label for a step, or empty for out-of-range
// values.
func StepLabel(step int) string {
	return stepLabels[step]
}
