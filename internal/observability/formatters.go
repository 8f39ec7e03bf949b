// Package observability provides logging setup and formatted output for
// verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/portfolio-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most width runes, marking the cut with "...".
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// writeList writes up to maxItemsToShow items with a "more" trailer.
func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s:\n", label)
	for _, item := range items[:min(len(items), maxItemsToShow)] {
		fmt.Fprintf(sb, "  • %s\n", item)
	}
	if len(items) > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-maxItemsToShow)
	}
}

// PrintAbout outputs a summary of the About section.
func (p *Printer) PrintAbout(section *types.AboutSection) {
	if section == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name:     %s\n", section.Profile.FullName)
	if section.Profile.SubTitle != "" {
		fmt.Fprintf(&sb, "Headline: %s\n", section.Profile.SubTitle)
	}
	if section.Profile.Country != "" {
		fmt.Fprintf(&sb, "Country:  %s\n", section.Profile.Country)
	}
	if len(section.Profile.Languages) > 0 {
		fmt.Fprintf(&sb, "Languages: %s\n", strings.Join(section.Profile.Languages, ", "))
	}
	sb.WriteString("\n")

	writeList(&sb, "Skills", section.Skills)

	fmt.Fprintf(&sb, "LinkedIn: %s\n", section.Contact.LinkedIn)
	if section.Contact.GitHub != "" {
		fmt.Fprintf(&sb, "GitHub:   %s\n", section.Contact.GitHub)
	}
	writeList(&sb, "Websites", section.Contact.Websites)

	p.printBox("ABOUT", sb.String())
}

// PrintProjects outputs a summary of the Projects section.
func (p *Printer) PrintProjects(section *types.ProjectsSection) {
	if section == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total: %d projects\n", len(section.Projects))
	for i, project := range section.Projects {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, project.Title)
		if len(project.Technologies) > 0 {
			fmt.Fprintf(&sb, "   Tech: %s\n", strings.Join(project.Technologies, ", "))
		}
		if project.SourceURL != "" {
			fmt.Fprintf(&sb, "   Source: %s\n", project.SourceURL)
		}
		if project.LiveDemoURL != "" {
			fmt.Fprintf(&sb, "   Demo: %s\n", project.LiveDemoURL)
		}
	}

	p.printBox("PROJECTS", sb.String())
}

// PrintExperience outputs a summary of the Experience section.
func (p *Printer) PrintExperience(section *types.ExperienceSection) {
	if section == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total: %d companies\n", len(section.Experience))
	for _, company := range section.Experience {
		fmt.Fprintf(&sb, "\n%s", company.Company)
		if company.Period != "" {
			fmt.Fprintf(&sb, " (%s)", company.Period)
		}
		sb.WriteString("\n")

		count := min(len(company.Positions), maxItemsToShow)
		for _, pos := range company.Positions[:count] {
			fmt.Fprintf(&sb, "  • %s", pos.Title)
			if pos.Period != "" {
				fmt.Fprintf(&sb, " [%s]", pos.Period)
			}
			sb.WriteString("\n")
		}
		if len(company.Positions) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(company.Positions)-maxItemsToShow)
		}
	}

	p.printBox("EXPERIENCE", sb.String())
}

// PrintStatus outputs the profile resolution outcome.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStatus(identifier, status string) {
	fmt.Fprintf(p.out, "Profile %q: %s\n", identifier, status)
}
