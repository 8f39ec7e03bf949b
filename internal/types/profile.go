// Package types provides type definitions for structured data used throughout the portfolio agent.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// ProfileDocument is the parsed upstream profile. Every field is optional; absent
// values decode to their zero value and extractors treat them as empty.
// Unknown top-level keys are kept in Extra so the document round-trips to the model intact.
type ProfileDocument struct {
	ProfileID       string `json:"profile_id,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	SubTitle        string `json:"sub_title,omitempty"`
	ProfilePicture  string `json:"profile_picture,omitempty"`
	BackgroundImage string `json:"background_image,omitempty"`
	Summary         string `json:"summary,omitempty"`
	Industry        string `json:"industry,omitempty"`
	OpenToWork      *bool  `json:"open_to_work,omitempty"`

	Location  *Address   `json:"location,omitempty"`
	Languages *Languages `json:"languages,omitempty"`

	Education      []Education     `json:"education,omitempty"`
	Certifications []Certification `json:"certifications,omitempty"`
	Projects       []Project       `json:"projects,omitempty"`
	Publications   []Publication   `json:"publications,omitempty"`
	PositionGroups []PositionGroup `json:"position_groups,omitempty"`
	Skills         []string        `json:"skills,omitempty"`
	ContactInfo    *ContactInfo    `json:"contact_info,omitempty"`

	// Extra holds fields the provider returned that are not modelled above.
	Extra map[string]json.RawMessage `json:"-"`
}

// Date is a calendar date where any component can be missing.
type Date struct {
	Month *int `json:"month,omitempty"`
	Day   *int `json:"day,omitempty"`
	Year  *int `json:"year,omitempty"`
}

// DateRange is a start/end date pair.
type DateRange struct {
	Start *Date `json:"start,omitempty"`
	End   *Date `json:"end,omitempty"`
}

// StartYear returns the start year, if present.
func (r *DateRange) StartYear() (int, bool) {
	if r == nil || r.Start == nil || r.Start.Year == nil {
		return 0, false
	}
	return *r.Start.Year, true
}

// EndYear returns the end year, if present.
func (r *DateRange) EndYear() (int, bool) {
	if r == nil || r.End == nil || r.End.Year == nil {
		return 0, false
	}
	return *r.End.Year, true
}

// Address is a postal location.
type Address struct {
	Country        string `json:"country,omitempty"`
	GeographicArea string `json:"geographic_area,omitempty"`
	City           string `json:"city,omitempty"`
	PostalCode     string `json:"postal_code,omitempty"`
	Line1          string `json:"line1,omitempty"`
	Line2          string `json:"line2,omitempty"`
	Description    string `json:"description,omitempty"`
}

// Locale is a country/language pair.
type Locale struct {
	Country  string `json:"country,omitempty"`
	Language string `json:"language,omitempty"`
}

// ProfileLanguage is a spoken language with proficiency.
type ProfileLanguage struct {
	Name        string `json:"name,omitempty"`
	Proficiency string `json:"proficiency,omitempty"`
}

// Languages groups locale and language proficiency data.
type Languages struct {
	PrimaryLocale    *Locale           `json:"primary_locale,omitempty"`
	SupportedLocales []Locale          `json:"supported_locales,omitempty"`
	ProfileLanguages []ProfileLanguage `json:"profile_languages,omitempty"`
}

// Company is an organisation reference.
type Company struct {
	ID   *int64 `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Logo string `json:"logo,omitempty"`
	URL  string `json:"url,omitempty"`
}

// School is an education institution.
type School struct {
	Name string `json:"name,omitempty"`
	Logo string `json:"logo,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Education is one education entry.
type Education struct {
	Date         *DateRange `json:"date,omitempty"`
	School       *School    `json:"school,omitempty"`
	DegreeName   string     `json:"degree_name,omitempty"`
	Description  string     `json:"description,omitempty"`
	FieldOfStudy string     `json:"field_of_study,omitempty"`
	Grade        string     `json:"grade,omitempty"`
}

// Certification is a professional certification.
type Certification struct {
	Name          string     `json:"name,omitempty"`
	Date          *DateRange `json:"date,omitempty"`
	Authority     string     `json:"authority,omitempty"`
	URL           string     `json:"url,omitempty"`
	LicenseNumber string     `json:"license_number,omitempty"`
	Company       *Company   `json:"company,omitempty"`
}

// Contributor is a project contributor or publication author.
type Contributor struct {
	Type      string `json:"type,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Name      string `json:"name,omitempty"`
	Headline  string `json:"headline,omitempty"`
}

// Project is a free-text project entry on the profile.
type Project struct {
	Title        string        `json:"title,omitempty"`
	Date         *DateRange    `json:"date,omitempty"`
	Description  string        `json:"description,omitempty"`
	Contributors []Contributor `json:"contributors,omitempty"`
}

// Publication is a publication entry; some represent tangible projects.
type Publication struct {
	Name      string        `json:"name,omitempty"`
	Publisher string        `json:"publisher,omitempty"`
	URL       string        `json:"url,omitempty"`
	Date      *Date         `json:"date,omitempty"`
	Authors   []Contributor `json:"authors,omitempty"`
}

// Position is a single role held within a position group.
type Position struct {
	Location       string     `json:"location,omitempty"`
	Date           *DateRange `json:"date,omitempty"`
	Company        string     `json:"company,omitempty"`
	Description    string     `json:"description,omitempty"`
	Title          string     `json:"title,omitempty"`
	EmploymentType string     `json:"employment_type,omitempty"`
}

// PositionGroup groups the positions held at one company.
type PositionGroup struct {
	Company          *Company   `json:"company,omitempty"`
	Date             *DateRange `json:"date,omitempty"`
	ProfilePositions []Position `json:"profile_positions,omitempty"`
}

// Website is a contact website link.
type Website struct {
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
}

// PhoneNumber is a contact phone number.
type PhoneNumber struct {
	Number string `json:"number,omitempty"`
	Type   string `json:"type,omitempty"`
}

// ContactInfo holds the contact section of a profile.
type ContactInfo struct {
	Websites     []Website     `json:"websites,omitempty"`
	Email        string        `json:"email,omitempty"`
	Twitter      string        `json:"twitter,omitempty"`
	PhoneNumbers []PhoneNumber `json:"phone_numbers,omitempty"`
}

// FullName returns first and last name joined by a single space, trimmed.
func (p *ProfileDocument) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// profileAlias has the same fields as ProfileDocument without its methods.
type profileAlias ProfileDocument

var (
	knownKeysOnce sync.Once
	knownKeys     map[string]struct{}
)

// profileKeys returns the JSON keys modelled by ProfileDocument.
func profileKeys() map[string]struct{} {
	knownKeysOnce.Do(func() {
		knownKeys = make(map[string]struct{})
		t := reflect.TypeOf(ProfileDocument{})
		for i := 0; i < t.NumField(); i++ {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			if name != "" && name != "-" {
				knownKeys[name] = struct{}{}
			}
		}
	})
	return knownKeys
}

// UnmarshalJSON decodes the modelled fields and keeps everything else in Extra.
func (p *ProfileDocument) UnmarshalJSON(data []byte) error {
	var base profileAlias
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	known := profileKeys()
	for key := range raw {
		if _, ok := known[key]; ok {
			delete(raw, key)
		}
	}

	*p = ProfileDocument(base)
	if len(raw) > 0 {
		p.Extra = raw
	}
	return nil
}

// MarshalJSON encodes the modelled fields merged with Extra.
func (p ProfileDocument) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(profileAlias(p))
	if err != nil || len(p.Extra) == 0 {
		return data, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range p.Extra {
		if _, exists := merged[key]; !exists {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}
