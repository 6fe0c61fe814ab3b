package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jaspreet-dot-casa/winrole/pkg/descriptor"
)

// ErrCancelled is returned when the user aborts the form.
var ErrCancelled = errors.New("cancelled")

// Field keys, matching the descriptor YAML keys.
const (
	fieldName          = "name"
	fieldDisplayName   = "display_name"
	fieldVersion       = "version"
	fieldInstallerFile = "installer_file"
	fieldProductID     = "product_id"
	fieldRegistryPath  = "registry_path"
	fieldInstallArgs   = "install_args"
	fieldAllowReboot   = "allow_reboot"
)

type formField struct {
	key      string
	label    string
	input    textinput.Model
	validate func(string) error
}

// DescriptorForm is a bubbletea model collecting the fields of a package descriptor.
type DescriptorForm struct {
	fields    []formField
	cursor    int
	err       error
	done      bool
	cancelled bool
}

// NewDescriptorForm creates a form pre-filled from the skeleton descriptor for name.
func NewDescriptorForm(name string) *DescriptorForm {
	skel := descriptor.Skeleton(name)

	newInput := func(placeholder, value string) textinput.Model {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = 260
		in.Width = 60
		in.SetValue(value)
		return in
	}

	reboot := "yes"
	if !skel.RebootAllowed() {
		reboot = "no"
	}

	f := &DescriptorForm{
		fields: []formField{
			{fieldName, "Package name", newInput("7zip", skel.Name), validateRule("name", "required,slug")},
			{fieldDisplayName, "Display name (registry DisplayName)", newInput("7-Zip 23.01 (x64 edition)", skel.DisplayName), validateRule("display name", "required,nojinja")},
			{fieldVersion, "Version", newInput("23.01", skel.Version), validateRule("version", "required,nojinja")},
			{fieldInstallerFile, "Installer file", newInput("7z2301-x64.msi", skel.InstallerFile), validateRule("installer file", "required,filename,nojinja")},
			{fieldProductID, "MSI product code (optional)", newInput("{XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}", ""), validateRule("product code", "omitempty,productcode")},
			{fieldRegistryPath, "Uninstall registry key", newInput(`HKLM:\SOFTWARE\...\Uninstall\...`, skel.RegistryPath), validateRule("registry path", "required,regpath,nojinja")},
			{fieldInstallArgs, "Install arguments (optional)", newInput("/S", ""), validateRule("install arguments", "omitempty,nojinja")},
			{fieldAllowReboot, "Allow reboot (yes/no)", newInput("yes", reboot), validateYesNo},
		},
	}
	f.fields[0].input.Focus()
	return f
}

// Init initializes the model.
func (f *DescriptorForm) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (f *DescriptorForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		f.cancelled = true
		return f, tea.Quit
	case "tab", "down":
		f.move(1)
		return f, nil
	case "shift+tab", "up":
		f.move(-1)
		return f, nil
	case "enter":
		return f.submitField()
	}

	var cmd tea.Cmd
	f.fields[f.cursor].input, cmd = f.fields[f.cursor].input.Update(msg)
	f.err = nil
	return f, cmd
}

func (f *DescriptorForm) move(delta int) {
	next := f.cursor + delta
	if next < 0 || next >= len(f.fields) {
		return
	}
	f.fields[f.cursor].input.Blur()
	f.cursor = next
	f.fields[f.cursor].input.Focus()
}

// submitField validates the current field, then advances or finishes.
func (f *DescriptorForm) submitField() (tea.Model, tea.Cmd) {
	if err := f.validateField(f.cursor); err != nil {
		f.err = err
		return f, nil
	}
	f.err = nil

	if f.cursor < len(f.fields)-1 {
		f.move(1)
		return f, nil
	}

	for i := range f.fields {
		if err := f.validateField(i); err != nil {
			f.err = err
			f.move(i - f.cursor)
			return f, nil
		}
	}

	if _, err := f.Result(); err != nil {
		f.err = err
		return f, nil
	}

	f.done = true
	return f, tea.Quit
}

func (f *DescriptorForm) validateField(i int) error {
	field := f.fields[i]
	if field.validate == nil {
		return nil
	}
	return field.validate(field.input.Value())
}

func (f *DescriptorForm) value(key string) string {
	for _, field := range f.fields {
		if field.key == key {
			return strings.TrimSpace(field.input.Value())
		}
	}
	return ""
}

// Result builds the descriptor from the form values.
func (f *DescriptorForm) Result() (*descriptor.Package, error) {
	allow, _ := parseYesNo(f.value(fieldAllowReboot))
	pkg := &descriptor.Package{
		Name:          f.value(fieldName),
		DisplayName:   f.value(fieldDisplayName),
		Version:       f.value(fieldVersion),
		InstallerFile: f.value(fieldInstallerFile),
		ProductID:     f.value(fieldProductID),
		RegistryPath:  f.value(fieldRegistryPath),
		InstallArgs:   f.value(fieldInstallArgs),
		AllowReboot:   &allow,
	}
	pkg.ApplyDefaults()

	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	return pkg, nil
}

// Done reports whether the form was completed.
func (f *DescriptorForm) Done() bool {
	return f.done
}

// Cancelled reports whether the user aborted the form.
func (f *DescriptorForm) Cancelled() bool {
	return f.cancelled
}

// View renders the form.
func (f *DescriptorForm) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("New package descriptor"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Remaining fields take their defaults and can be edited in the YAML file."))
	b.WriteString("\n\n")

	for i, field := range f.fields {
		label := labelStyle.Render(field.label)
		if i == f.cursor {
			label = activeLabelStyle.Render("> " + field.label)
		}
		b.WriteString(fmt.Sprintf("%s\n  %s\n", label, field.input.View()))
	}

	if f.err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(f.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(DimStyle.Render("enter: next/submit • tab/shift+tab: move • esc: cancel"))
	b.WriteString("\n")
	return b.String()
}

// RunDescriptorForm runs the form on the given terminal streams and returns
// the collected descriptor. It returns ErrCancelled if the user aborts.
func RunDescriptorForm(name string, in io.Reader, out io.Writer) (*descriptor.Package, error) {
	form := NewDescriptorForm(name)

	final, err := tea.NewProgram(form, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return nil, fmt.Errorf("form failed: %w", err)
	}

	result, ok := final.(*DescriptorForm)
	if !ok || result.Cancelled() || !result.Done() {
		return nil, ErrCancelled
	}
	return result.Result()
}
