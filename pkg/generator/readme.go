package generator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/jaspreet-dot-casa/winrole/pkg/descriptor"
)

// escapeMarkdownTable escapes characters that would break markdown table cells.
func escapeMarkdownTable(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}

// ReadmeData holds the values rendered into the role README.
type ReadmeData struct {
	Role         string
	Hosts        string
	PlaybooksDir string
	Packages     []ReadmePackage
}

// ReadmePackage is one row of the package table.
type ReadmePackage struct {
	Name        string
	DisplayName string
	Version     string
	Type        string
	Reboot      bool
	Playbooks   []string
}

func buildReadmeData(opts Options, reg *descriptor.Registry) ReadmeData {
	data := ReadmeData{
		Role:         opts.RoleName,
		Hosts:        opts.Hosts,
		PlaybooksDir: "playbooks",
		Packages:     make([]ReadmePackage, 0, len(reg.Packages)),
	}
	if rel, err := relSlash(opts.Dirs.Root, opts.Dirs.Playbooks); err == nil {
		data.PlaybooksDir = rel
	}
	for _, pkg := range reg.Packages {
		row := ReadmePackage{
			Name:        pkg.Name,
			DisplayName: escapeMarkdownTable(pkg.DisplayName),
			Version:     escapeMarkdownTable(pkg.Version),
			Type:        string(pkg.InstallerType),
			Reboot:      pkg.RebootAllowed(),
		}
		for _, action := range descriptor.Actions {
			row.Playbooks = append(row.Playbooks, pkg.PlaybookName(action))
		}
		data.Packages = append(data.Packages, row)
	}
	return data
}

// RoleReadme renders the role README as markdown, one section per component.
func RoleReadme(data ReadmeData) templ.Component {
	return templ.Join(
		readmeIntro(data.Role),
		readmePackages(data.Packages),
		readmeUsage(data),
	)
}

// markdown adapts a builder func to a component that writes plain text.
func markdown(build func(b *strings.Builder)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var b strings.Builder
		build(&b)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func readmeIntro(role string) templ.Component {
	return markdown(func(b *strings.Builder) {
		fmt.Fprintf(b, "# %s\n\n", role)
		b.WriteString("Installs, upgrades and uninstalls Windows software packages.\n")
		b.WriteString("Generated by winrole; edit the descriptors under packages/ and re-run\n")
		b.WriteString("`winrole scaffold` instead of editing these files.\n\n")

		b.WriteString("## Workflow\n\n")
		b.WriteString("detect -> install | upgrade | uninstall (by `package_action`) -> cleanup -> reboot (when required and allowed) -> report\n\n")
	})
}

func readmePackages(pkgs []ReadmePackage) templ.Component {
	return markdown(func(b *strings.Builder) {
		b.WriteString("## Packages\n\n")
		if len(pkgs) == 0 {
			b.WriteString("_No packages._\n")
			return
		}
		b.WriteString("| Package | Display name | Version | Installer | Reboot |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, p := range pkgs {
			reboot := "no"
			if p.Reboot {
				reboot = "yes"
			}
			fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n", p.Name, p.DisplayName, p.Version, p.Type, reboot)
		}
	})
}

func readmeUsage(data ReadmeData) templ.Component {
	return markdown(func(b *strings.Builder) {
		b.WriteString("\n## Usage\n\n```sh\n")
		for _, p := range data.Packages {
			for _, pb := range p.Playbooks {
				fmt.Fprintf(b, "ansible-playbook -i inventory %s/%s -e target_hosts=%s\n", data.PlaybooksDir, pb, data.Hosts)
			}
		}
		b.WriteString("```\n")
	})
}

func renderReadme(ctx context.Context, opts Options, reg *descriptor.Registry) ([]byte, error) {
	var buf bytes.Buffer
	if err := RoleReadme(buildReadmeData(opts, reg)).Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to render README: %w", err)
	}
	return buf.Bytes(), nil
}
