package plan

import (
	"fmt"
	"regexp"
	"strings"
)

// linkLineRegex matches a tracker link line written by InjectLinks. Older plan
// files carry the **JIRA:** label.
var linkLineRegex = regexp.MustCompile(`^\*\*(?:Tracker|JIRA):\*\* \[.+\]\(.+\)`)

// LinkLine formats the line placed under a heading for an issue key.
func LinkLine(key, baseURL string) string {
	url := fmt.Sprintf("%s/browse/%s", strings.TrimRight(baseURL, "/"), key)
	return fmt.Sprintf("**Tracker:** [%s](%s)", key, url)
}

// InjectLinks writes a tracker link line directly under every plan heading
// whose id has a key. A link line already under such a heading is replaced,
// so running InjectLinks again with the same keys changes nothing.
func InjectLinks(text string, keys *KeyMap, baseURL string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines)+keys.Len())
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		out = append(out, line)

		key, ok := keys.Get(HeadingID(line))
		if !ok {
			continue
		}
		out = append(out, LinkLine(key, baseURL))
		if i+1 < len(lines) && linkLineRegex.MatchString(lines[i+1]) {
			i++
		}
	}
	return strings.Join(out, "\n")
}
