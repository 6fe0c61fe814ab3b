package gitops

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/jaspreet-dot-casa/winrole/pkg/envfile"
)

// Environment keys read by LoadCredentials.
const (
	EnvUsername = "WINROLE_GIT_USERNAME"
	EnvToken    = "WINROLE_GIT_TOKEN"
)

// Credentials hold HTTP(S) authentication for push.
// For GitHub and similar services Token is a personal access token.
type Credentials struct {
	Username string
	Token    string
}

// LoadCredentials reads credentials from the env file at path, falling back
// to the process environment. A missing file is not an error.
func LoadCredentials(path string) (Credentials, error) {
	vars := map[string]string{}
	if path != "" {
		parsed, err := envfile.Parse(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, err
		}
		if parsed != nil {
			vars = parsed
		}
	}

	return Credentials{
		Username: envfile.Lookup(vars, EnvUsername),
		Token:    envfile.Lookup(vars, EnvToken),
	}, nil
}

// AuthFromCredentials returns basic auth for http(s) remotes when both
// username and token are set. SSH and local remotes get nil so go-git uses
// its own defaults.
func AuthFromCredentials(url string, creds Credentials) transport.AuthMethod {
	if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
		return nil
	}
	if creds.Username == "" || creds.Token == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: creds.Username,
		Password: creds.Token,
	}
}
