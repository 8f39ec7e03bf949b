// Package experience flattens profile position groups into the display-ready
// Experience section.
package experience

import (
	"strconv"

	"github.com/jonathan/portfolio-agent/internal/types"
)

// UnknownCompany is shown for a group without a company name.
const UnknownCompany = "Unknown Company"

// PresentLabel ends a period that has a start year but no end year.
const PresentLabel = "Present"

// Extract builds the Experience section. Groups keep source order and groups
// without positions are dropped.
func Extract(doc *types.ProfileDocument) types.ExperienceSection {
	section := types.ExperienceSection{Experience: []types.CompanyExperience{}}
	if doc == nil {
		return section
	}

	for _, group := range doc.PositionGroups {
		if len(group.ProfilePositions) == 0 {
			continue
		}

		entry := types.CompanyExperience{
			Company:   UnknownCompany,
			Period:    FormatPeriod(group.Date),
			Positions: make([]types.ExperiencePosition, 0, len(group.ProfilePositions)),
		}
		if group.Company != nil {
			if group.Company.Name != "" {
				entry.Company = group.Company.Name
			}
			entry.Logo = group.Company.Logo
		}

		for _, pos := range group.ProfilePositions {
			if entry.Location == "" {
				entry.Location = pos.Location
			}
			entry.Positions = append(entry.Positions, types.ExperiencePosition{
				Title:       pos.Title,
				Period:      FormatPeriod(pos.Date),
				Location:    pos.Location,
				Description: pos.Description,
			})
		}

		section.Experience = append(section.Experience, entry)
	}
	return section
}

// FormatPeriod renders a date range by year: "2017 - 2022", "2020 - Present",
// "2022" when only the end is known, or "" when neither is.
func FormatPeriod(r *types.DateRange) string {
	start, hasStart := r.StartYear()
	end, hasEnd := r.EndYear()

	switch {
	case hasStart && hasEnd:
		return strconv.Itoa(start) + " - " + strconv.Itoa(end)
	case hasStart:
		return strconv.Itoa(start) + " - " + PresentLabel
	case hasEnd:
		return strconv.Itoa(end)
	default:
		return ""
	}
}
