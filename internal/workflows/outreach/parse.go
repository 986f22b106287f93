package outreach

import (
	"regexp"
	"strings"
)

// notProvided marks a missing field in the model's extraction reply.
const notProvided = "NOT_PROVIDED"

var fieldPattern = regexp.MustCompile(`(?i)\b(company|person)[ \t]*:[ \t]*([^,\n]*)`)

// parseContact reads "Company: X" and "Person: Y" fields separated by
// commas or newlines. Empty and NOT_PROVIDED values are ignored. A value
// never spans lines, so a blank field cannot swallow the next one.
func parseContact(text string) (company, person string) {
	for _, m := range fieldPattern.FindAllStringSubmatch(text, -1) {
		value := strings.Trim(strings.TrimSpace(m[2]), `"'[]`)
		if value == "" || strings.EqualFold(value, notProvided) {
			continue
		}
		switch strings.ToLower(m[1]) {
		case "company":
			company = value
		case "person":
			person = value
		}
	}
	return company, person
}
