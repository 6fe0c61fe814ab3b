// Package envfile parses shell-style env files such as secrets.env.
package envfile

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Parse parses the env file at path.
func Parse(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseReader(file)
}

// ParseReader parses KEY=VALUE lines. It accepts an optional "export "
// prefix, strips one pair of matching quotes, splits on the first "=" and
// skips blank lines, comments and lines without "=".
func ParseReader(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		vars[key] = unquote(strings.TrimSpace(value))
	}

	return vars, scanner.Err()
}

// Lookup returns the first non-empty value for key from vars, then the
// process environment.
func Lookup(vars map[string]string, key string) string {
	if v := vars[key]; v != "" {
		return v
	}
	return os.Getenv(key)
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}
