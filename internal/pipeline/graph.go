package pipeline

import "fmt"

// Stage names a state of the run graph.
type Stage string

const (
	StageFetch      Stage = "fetch"
	StageNotFound   Stage = "not_found"
	StageAbout      Stage = "about"
	StageProjects   Stage = "projects"
	StageExperience Stage = "experience"
	StageDone       Stage = "done"
)

// StageDefinition describes one state of the run graph. Work stages report
// lifecycle events; terminal states do not.
type StageDefinition struct {
	Name Stage
	Work bool
	// Next is the unconditional successor. Ignored when Route is set.
	Next Stage
	// Route picks the successor from the profile status.
	Route func(ProfileStatus) Stage
}

// StageGraph is the fixed transition table.
var StageGraph = map[Stage]StageDefinition{
	StageFetch: {
		Name:  StageFetch,
		Work:  true,
		Route: routeAfterFetch,
	},
	StageNotFound: {
		Name: StageNotFound,
		Next: StageDone,
	},
	StageAbout: {
		Name: StageAbout,
		Work: true,
		Next: StageProjects,
	},
	StageProjects: {
		Name: StageProjects,
		Work: true,
		Next: StageExperience,
	},
	StageExperience: {
		Name: StageExperience,
		Work: true,
		Next: StageDone,
	},
}

func routeAfterFetch(status ProfileStatus) Stage {
	if status == ProfileFound {
		return StageAbout
	}
	return StageNotFound
}

// NextStage returns the successor of stage given the fetch outcome.
func NextStage(stage Stage, status ProfileStatus) (Stage, error) {
	def, ok := StageGraph[stage]
	if !ok {
		return "", fmt.Errorf("unknown stage: %s", stage)
	}
	if def.Route != nil {
		return def.Route(status), nil
	}
	return def.Next, nil
}

// Path returns the work stages a run visits for a given fetch outcome, in order.
func Path(status ProfileStatus) ([]Stage, error) {
	var path []Stage
	stage := StageFetch
	for steps := 0; stage != StageDone; steps++ {
		if steps > len(StageGraph) {
			return nil, fmt.Errorf("stage graph does not terminate from %s", StageFetch)
		}
		def, ok := StageGraph[stage]
		if !ok {
			return nil, fmt.Errorf("unknown stage: %s", stage)
		}
		if def.Work {
			path = append(path, stage)
		}
		next, err := NextStage(stage, status)
		if err != nil {
			return nil, err
		}
		stage = next
	}
	return path, nil
}
