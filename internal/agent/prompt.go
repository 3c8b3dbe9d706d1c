package agent

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strings"
	"text/template"
)

// DefaultPromptTemplate is the system prompt used unless a custom
// template file is configured.
const DefaultPromptTemplate = `You are a ReAct (Reasoning and Acting) agent that solves tasks step by step.

Each task is given to you as <question>...</question>. Work through it by
alternating between reasoning and tool calls:

1. Think about what to do next and write it inside <thought>...</thought>.
2. Call exactly one tool inside <action>...</action>, then stop and wait.
3. The result comes back to you as <observation>...</observation>.
4. Repeat until you can answer, then write the answer inside
   <final_answer>...</final_answer>.

Example:

<question>What does the README say about installation?</question>
<thought>I should read the README file.</thought>
<action>read_file("README.md")</action>

<observation># Project ... Run make install ...</observation>
<thought>The README explains the installation step.</thought>
<final_answer>Run make install.</final_answer>

Rules:
- Every reply must contain a <thought> and either one <action> or a <final_answer>.
- After an <action>, stop. Never write the <observation> yourself.
- Write tool calls as a function call with quoted string arguments, for
  example write_to_file("src/main.go", "package main\n"). Escape quotes,
  newlines and tabs inside strings as \", \n and \t.
- Paths are relative to the project directory unless absolute. Files
  outside the project directory cannot be touched.
- If a tool does not exist or fails, adjust your plan instead of repeating the same call.

Available tools:
{{.ToolList}}

Environment:
- Operating system: {{.OperatingSystem}}
- Files in the project directory: {{.FileList}}
`

// PromptData is the input of the system prompt template.
type PromptData struct {
	ToolList        string
	OperatingSystem string
	FileList        string
}

// PromptRenderer renders the system prompt. It is rebuilt for every task
// so the file list reflects the current project directory.
type PromptRenderer struct {
	tmpl *template.Template
}

// NewPromptRenderer parses text as the system prompt template. An empty
// text selects DefaultPromptTemplate.
func NewPromptRenderer(text string) (*PromptRenderer, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultPromptTemplate
	}
	tmpl, err := template.New("system").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	return &PromptRenderer{tmpl: tmpl}, nil
}

// LoadPromptRenderer reads a template file, or returns the default
// renderer when path is empty.
func LoadPromptRenderer(path string) (*PromptRenderer, error) {
	if path == "" {
		return NewPromptRenderer("")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt template %s: %w", path, err)
	}
	return NewPromptRenderer(string(data))
}

// Render executes the template.
func (p *PromptRenderer) Render(data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt template: %w", err)
	}
	return buf.String(), nil
}

// OperatingSystemName maps runtime.GOOS to a display name.
func OperatingSystemName() string {
	return osDisplayName(runtime.GOOS)
}

func osDisplayName(goos string) string {
	switch goos {
	case "darwin":
		return "macOS"
	case "windows":
		return "Windows"
	case "linux":
		return "Linux"
	default:
		return "Unknown"
	}
}

// ListProjectFiles returns the entry names of dir joined by ", ". A
// missing or non-directory dir is an EnvironmentError.
func ListProjectFiles(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", &EnvironmentError{Err: fmt.Errorf("project directory %s: %w", dir, err)}
	}
	if !info.IsDir() {
		return "", &EnvironmentError{Err: fmt.Errorf("project directory %s is not a directory", dir)}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &EnvironmentError{Err: fmt.Errorf("listing project directory %s: %w", dir, err)}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return strings.Join(names, ", "), nil
}
