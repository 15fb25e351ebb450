package config

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"regexp"
	"strings"
)

var exportLine = regexp.MustCompile(`^export\s+([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

// dotenv is a koanf.Provider over an `export KEY=value` file. Only JIRA_*
// keys are kept, named the way the env provider names them.
type dotenv struct {
	path string
}

func dotenvProvider(path string) *dotenv {
	return &dotenv{path: path}
}

// ReadBytes returns the raw file. A missing file reads as empty.
func (d *dotenv) ReadBytes() ([]byte, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Read parses the file into a flat key map.
func (d *dotenv) Read() (map[string]interface{}, error) {
	data, err := d.ReadBytes()
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{})
	for k, v := range parseExports(data) {
		if strings.HasPrefix(k, envPrefix) && v != "" {
			out[envKey(k)] = v
		}
	}
	return out, nil
}

// parseExports reads `export KEY=value` lines, stripping one layer of quotes.
// Other lines are ignored.
func parseExports(data []byte) map[string]string {
	vars := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		m := exportLine.FindStringSubmatch(strings.TrimRight(sc.Text(), "\r"))
		if m == nil {
			continue
		}
		v := strings.TrimPrefix(m[2], `"`)
		v = strings.TrimPrefix(v, `'`)
		v = strings.TrimSuffix(v, `"`)
		v = strings.TrimSuffix(v, `'`)
		vars[m[1]] = strings.TrimSpace(v)
	}
	return vars
}
