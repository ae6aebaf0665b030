package crm

import "strings"

const (
	notesMarker      = "challenge_notes:"
	notesStopMarker  = "\nchallenge_shape_notes:"
	notesPlaceholder = "challenge_notes: [extracted]"
)

// parseNoteContent turns the form-webhook note body into an Order. The note
// is loosely structured "key: value" lines; challenge_notes may span several
// lines, terminated by the challenge_shape_notes field, and attached file
// URLs sometimes appear on bare lines without a key.
func parseNoteContent(content string) *Order {
	out := &Order{}

	// Pull the multi-line notes block out first so its lines are not
	// mistaken for fields of their own.
	if start := strings.Index(content, notesMarker); start != -1 {
		valueStart := start + len(notesMarker)
		if stop := strings.Index(content[valueStart:], notesStopMarker); stop != -1 {
			out.Notes = strings.TrimSpace(content[valueStart : valueStart+stop])
			content = content[:start] + notesPlaceholder + content[valueStart+stop:]
		}
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == notesPlaceholder {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if found {
			key = strings.ToLower(strings.TrimSpace(key))
			value = strings.TrimSpace(value)
		}

		switch {
		case !found:
			if u := extractURL(line); u != "" {
				assignFileURL(out, u)
			}
		case key == "first name", key == "firstname", key == "first_name":
			out.FirstName = value
		case key == "last name", key == "lastname", key == "last_name":
			out.LastName = value
		case key == "organization name", key == "organization_name", key == "organization":
			out.Organization = value
		case key == "challenge_notes":
			if out.Notes == "" {
				out.Notes = value
			}
		case key == "first_file":
			out.FirstFileURL = extractURL(value)
		case key == "second_file":
			out.SecondFileURL = extractURL(value)
		default:
			// A URL on an unrecognized line is still treated as an
			// attached file; the form webhook is not consistent
			// about labeling them.
			if u := extractURL(line); u != "" {
				assignFileURL(out, u)
			}
		}
	}

	return out
}

func assignFileURL(o *Order, u string) {
	switch {
	case o.FirstFileURL == "":
		o.FirstFileURL = u
	case o.SecondFileURL == "":
		o.SecondFileURL = u
	}
}

func extractURL(s string) string {
	start := strings.Index(s, "http")
	if start == -1 {
		return ""
	}
	u := s[start:]
	if end := strings.IndexAny(u, " \t\r"); end != -1 {
		u = u[:end]
	}
	if !strings.Contains(u, ".") {
		return ""
	}
	return strings.TrimSpace(u)
}
