package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/jonathan/portfolio-agent/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrinter_PrintAbout(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAbout(&types.AboutSection{
		Profile: types.AboutProfile{
			FullName:  "Ada Lovelace",
			SubTitle:  "Analyst",
			Country:   "United Kingdom",
			Languages: []string{"English", "French"},
		},
		Skills: []string{"Go", "Math"},
		Contact: types.ContactLinks{
			LinkedIn: "https://www.linkedin.com/in/ada",
			GitHub:   "https://github.com/ada",
		},
	})

	out := buf.String()
	assert.Contains(t, out, "ABOUT")
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "Analyst")
	assert.Contains(t, out, "English, French")
	assert.Contains(t, out, "• Go")
	assert.Contains(t, out, "https://github.com/ada")
}

func TestPrinter_PrintProjects(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProjects(&types.ProjectsSection{Projects: []types.PortfolioProject{
		{Title: "Engine", Description: "d", Technologies: []string{"Go", "Postgres"}, SourceURL: "https://github.com/ada/engine"},
		{Title: "Notes", Description: "d"},
	}})

	out := buf.String()
	assert.Contains(t, out, "PROJECTS")
	assert.Contains(t, out, "Total: 2 projects")
	assert.Contains(t, out, "1. Engine")
	assert.Contains(t, out, "Tech: Go, Postgres")
	assert.Contains(t, out, "2. Notes")
}

func TestPrinter_PrintExperience(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	positions := make([]types.ExperiencePosition, 7)
	for i := range positions {
		positions[i] = types.ExperiencePosition{Title: fmt.Sprintf("Role %d", i), Period: "2020"}
	}
	p.PrintExperience(&types.ExperienceSection{Experience: []types.CompanyExperience{
		{Company: "Acme", Period: "2018 - Present", Positions: positions},
	}})

	out := buf.String()
	assert.Contains(t, out, "EXPERIENCE")
	assert.Contains(t, out, "Acme (2018 - Present)")
	assert.Contains(t, out, "• Role 0 [2020]")
	assert.NotContains(t, out, "Role 5")
	assert.Contains(t, out, "... and 2 more")
}

func TestPrinter_NilSections(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAbout(nil)
	p.PrintProjects(nil)
	p.PrintExperience(nil)

	assert.Empty(t, buf.String())
}

func TestPrinter_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProjects(&types.ProjectsSection{Projects: []types.PortfolioProject{
		{Title: strings.Repeat("é", 100), Description: "d"},
	}})

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), "line %q", line)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrinter_PrintStatus(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStatus("ada", "not_found")
	assert.Equal(t, "Profile \"ada\": not_found\n", buf.String())
}
