package types

import "strings"

// AboutSection is the summary section rendered at the top of the portfolio.
type AboutSection struct {
	Profile AboutProfile `json:"profile"`
	Skills  []string     `json:"skills"`
	Contact ContactLinks `json:"contact"`
}

// AboutProfile holds identity and bio fields. Strings are never null.
type AboutProfile struct {
	Avatar    string   `json:"avatar"`
	FullName  string   `json:"fullName"`
	SubTitle  string   `json:"subTitle"`
	Summary   string   `json:"summary"`
	Country   string   `json:"country"`
	Languages []string `json:"languages"`
}

// ContactLinks holds the canonical LinkedIn URL plus any GitHub and other websites.
type ContactLinks struct {
	LinkedIn string   `json:"linkedin"`
	GitHub   string   `json:"github,omitempty"`
	Websites []string `json:"websites"`
}

// PortfolioProject is one project card. Optional fields are omitted when empty.
type PortfolioProject struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Technologies []string `json:"technologies,omitempty"`
	Images       []string `json:"images,omitempty"`
	DemoVideoURL string   `json:"demoVideoUrl,omitempty"`
	LiveDemoURL  string   `json:"liveDemoUrl,omitempty"`
	SourceURL    string   `json:"sourceUrl,omitempty"`
}

// ProjectsSection is the ordered, deduplicated list of at most MaxProjects projects.
type ProjectsSection struct {
	Projects []PortfolioProject `json:"projects" validate:"dive"`
}

// MaxProjects bounds the Projects section.
const MaxProjects = 8

// ExperiencePosition is one role within a company group.
type ExperiencePosition struct {
	Title       string `json:"title"`
	Period      string `json:"period"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// CompanyExperience is a company group with at least one position.
type CompanyExperience struct {
	Company   string               `json:"company"`
	Logo      string               `json:"logo,omitempty"`
	Period    string               `json:"period"`
	Location  string               `json:"location,omitempty"`
	Positions []ExperiencePosition `json:"positions"`
}

// ExperienceSection is the flattened, display-ready work history.
type ExperienceSection struct {
	Experience []CompanyExperience `json:"experience"`
}

// PortfolioRequest is the body of the portfolio endpoints. LinkedInID is an
// accepted alias for Identifier.
type PortfolioRequest struct {
	Identifier string `json:"identifier" validate:"required,max=200"`
	LinkedInID string `json:"linkedin_id,omitempty"`
}

// Normalize trims the identifier and applies the alias.
func (r *PortfolioRequest) Normalize() {
	r.Identifier = strings.TrimSpace(r.Identifier)
	if r.Identifier == "" {
		r.Identifier = strings.TrimSpace(r.LinkedInID)
	}
}
