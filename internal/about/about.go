// Package about builds the About section from a profile document.
package about

import (
	"strings"

	"github.com/jonathan/portfolio-agent/internal/types"
)

// LinkedInBaseURL prefixes the run identifier to form the canonical profile URL.
const LinkedInBaseURL = "https://www.linkedin.com/in/"

// Extract maps a profile document to the About section. It never fails:
// missing fields become empty strings or empty lists.
func Extract(identifier string, doc *types.ProfileDocument) types.AboutSection {
	if doc == nil {
		doc = &types.ProfileDocument{}
	}

	section := types.AboutSection{
		Profile: types.AboutProfile{
			Avatar:    doc.ProfilePicture,
			FullName:  doc.FullName(),
			SubTitle:  doc.SubTitle,
			Summary:   doc.Summary,
			Languages: languageNames(doc.Languages),
		},
		Skills:  nonNilStrings(doc.Skills),
		Contact: contactLinks(identifier, doc.ContactInfo),
	}
	if doc.Location != nil {
		section.Profile.Country = doc.Location.Country
	}
	return section
}

func languageNames(langs *types.Languages) []string {
	names := []string{}
	if langs == nil {
		return names
	}
	for _, lang := range langs.ProfileLanguages {
		if lang.Name != "" {
			names = append(names, lang.Name)
		}
	}
	return names
}

// contactLinks splits websites into the first GitHub URL and everything else.
func contactLinks(identifier string, info *types.ContactInfo) types.ContactLinks {
	links := types.ContactLinks{
		LinkedIn: LinkedInBaseURL + identifier,
		Websites: []string{},
	}
	if info == nil {
		return links
	}

	for _, site := range info.Websites {
		if site.URL == "" {
			continue
		}
		if isGitHub(site.URL) {
			if links.GitHub == "" {
				links.GitHub = site.URL
			}
			continue
		}
		links.Websites = append(links.Websites, site.URL)
	}
	return links
}

func isGitHub(url string) bool {
	return strings.Contains(strings.ToLower(url), "github.com")
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
