package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-agent/internal/types"
)

func TestRunState_WriteOnce(t *testing.T) {
	s := NewRunState("r", "jdoe")
	assert.Equal(t, ProfileUnknown, s.ProfileStatus)

	require.NoError(t, s.SetProfile(ProfileFound, &types.ProfileDocument{}))
	assert.ErrorIs(t, s.SetProfile(ProfileFound, &types.ProfileDocument{}), ErrAlreadySet)

	require.NoError(t, s.SetAbout(types.AboutSection{}))
	assert.ErrorIs(t, s.SetAbout(types.AboutSection{}), ErrAlreadySet)

	require.NoError(t, s.SetProjects(&types.ProjectsSection{}))
	assert.ErrorIs(t, s.SetProjects(&types.ProjectsSection{}), ErrAlreadySet)

	require.NoError(t, s.SetExperience(types.ExperienceSection{}))
	assert.ErrorIs(t, s.SetExperience(types.ExperienceSection{}), ErrAlreadySet)
}

func TestRunState_NotFoundRejectsSections(t *testing.T) {
	s := NewRunState("r", "ghost")
	require.NoError(t, s.SetProfile(ProfileNotFound, nil))

	assert.ErrorIs(t, s.SetAbout(types.AboutSection{}), ErrNoProfile)
	assert.ErrorIs(t, s.SetProjects(&types.ProjectsSection{}), ErrNoProfile)
	assert.ErrorIs(t, s.SetExperience(types.ExperienceSection{}), ErrNoProfile)
	assert.Nil(t, s.About)
}

func TestRunState_SetProfileConsistency(t *testing.T) {
	assert.Error(t, NewRunState("r", "x").SetProfile(ProfileFound, nil))
	assert.Error(t, NewRunState("r", "x").SetProfile(ProfileNotFound, &types.ProfileDocument{}))
	assert.Error(t, NewRunState("r", "x").SetProfile(ProfileUnknown, nil))
}

func TestRunState_SectionsBeforeFetchRejected(t *testing.T) {
	assert.ErrorIs(t, NewRunState("r", "x").SetAbout(types.AboutSection{}), ErrNoProfile)
}

func TestProjection_OmitsAbsentSections(t *testing.T) {
	s := NewRunState("r", "jdoe")
	require.NoError(t, s.SetProfile(ProfileFound, &types.ProfileDocument{}))
	require.NoError(t, s.SetProjects(&types.ProjectsSection{Projects: []types.PortfolioProject{}}))

	data, err := json.Marshal(s.Projection())
	require.NoError(t, err)
	assert.JSONEq(t, `{"profileStatus": "found", "projectsSection": {"projects": []}}`, string(data))
}
