package pipeline

import (
	"errors"
	"fmt"

	"github.com/jonathan/portfolio-agent/internal/types"
)

// ProfileStatus is the outcome of the fetch stage.
type ProfileStatus string

const (
	ProfileUnknown  ProfileStatus = "unknown"
	ProfileFound    ProfileStatus = "found"
	ProfileNotFound ProfileStatus = "not_found"
)

// ErrAlreadySet is returned when a write-once RunState field is written twice.
var ErrAlreadySet = errors.New("already set")

// ErrNoProfile is returned when a section is written for a run without a profile.
var ErrNoProfile = errors.New("profile not found")

// RunState is the state of a single run. Each field is written by exactly one
// stage through its setter and never mutated afterwards.
type RunState struct {
	RunID         string
	Identifier    string
	ProfileStatus ProfileStatus
	Profile       *types.ProfileDocument

	About      *types.AboutSection
	Projects   *types.ProjectsSection
	Experience *types.ExperienceSection
}

// NewRunState returns a state holding only the identifier.
func NewRunState(runID, identifier string) *RunState {
	return &RunState{
		RunID:         runID,
		Identifier:    identifier,
		ProfileStatus: ProfileUnknown,
	}
}

// SetProfile records the fetch outcome. A found status requires a document; a
// not-found status must not carry one.
func (s *RunState) SetProfile(status ProfileStatus, doc *types.ProfileDocument) error {
	if s.ProfileStatus != ProfileUnknown {
		return fmt.Errorf("profile status: %w", ErrAlreadySet)
	}
	switch status {
	case ProfileFound:
		if doc == nil {
			return errors.New("profile status found without a document")
		}
	case ProfileNotFound:
		if doc != nil {
			return errors.New("profile status not_found with a document")
		}
	default:
		return fmt.Errorf("invalid profile status %q", status)
	}
	s.ProfileStatus = status
	s.Profile = doc
	return nil
}

// SetAbout records the About section.
func (s *RunState) SetAbout(section types.AboutSection) error {
	if err := s.checkSection("about", s.About != nil); err != nil {
		return err
	}
	s.About = &section
	return nil
}

// SetProjects records the Projects section.
func (s *RunState) SetProjects(section *types.ProjectsSection) error {
	if err := s.checkSection("projects", s.Projects != nil); err != nil {
		return err
	}
	if section == nil {
		return errors.New("projects: nil section")
	}
	s.Projects = section
	return nil
}

// SetExperience records the Experience section.
func (s *RunState) SetExperience(section types.ExperienceSection) error {
	if err := s.checkSection("experience", s.Experience != nil); err != nil {
		return err
	}
	s.Experience = &section
	return nil
}

func (s *RunState) checkSection(name string, set bool) error {
	if s.ProfileStatus != ProfileFound {
		return fmt.Errorf("%s: %w", name, ErrNoProfile)
	}
	if set {
		return fmt.Errorf("%s: %w", name, ErrAlreadySet)
	}
	return nil
}

// Projection is the externally visible result of a run.
type Projection struct {
	ProfileStatus     ProfileStatus            `json:"profileStatus"`
	AboutSection      *types.AboutSection      `json:"aboutSection,omitempty"`
	ProjectsSection   *types.ProjectsSection   `json:"projectsSection,omitempty"`
	ExperienceSection *types.ExperienceSection `json:"experienceSection,omitempty"`
}

// Projection returns the caller-facing view of the state.
func (s *RunState) Projection() Projection {
	return Projection{
		ProfileStatus:     s.ProfileStatus,
		AboutSection:      s.About,
		ProjectsSection:   s.Projects,
		ExperienceSection: s.Experience,
	}
}
