// Package manifest parses YAML task files for batch runs.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klubi/reagent/pkg/apis/v1alpha1"
)

// ParseFile reads a YAML file at the given path and parses the tasks in
// it. Multi-document YAML (separated by ---) is supported.
func ParseFile(path string) ([]*v1alpha1.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest file %s: %w", path, err)
	}
	return ParseBytes(data)
}

// ParseBytes parses raw YAML bytes into tasks, in document order.
func ParseBytes(data []byte) ([]*v1alpha1.Task, error) {
	var tasks []*v1alpha1.Task

	decoder := yaml.NewDecoder(bytes.NewReader(data))

	for doc := 1; ; doc++ {
		// Decode into a generic yaml.Node so we can re-decode it.
		var node yaml.Node
		if err := decoder.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decoding yaml document %d: %w", doc, err)
		}

		// Skip empty documents.
		if node.Kind == 0 {
			continue
		}

		// First pass: extract TypeMeta to determine the Kind.
		var meta v1alpha1.TypeMeta
		if err := node.Decode(&meta); err != nil {
			return nil, fmt.Errorf("decoding type meta of document %d: %w", doc, err)
		}
		if meta.Kind == "" && meta.APIVersion == "" {
			continue
		}
		if meta.Kind != v1alpha1.KindTask {
			return nil, fmt.Errorf("document %d: unknown resource kind: %q", doc, meta.Kind)
		}

		var task v1alpha1.Task
		if err := node.Decode(&task); err != nil {
			return nil, fmt.Errorf("decoding Task in document %d: %w", doc, err)
		}
		if task.APIVersion == "" {
			task.APIVersion = v1alpha1.APIVersion
		}
		if err := validate(&task); err != nil {
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}

		tasks = append(tasks, &task)
	}

	return tasks, nil
}

// validate checks the fields a batch run needs. Names are optional; the
// journal assigns its own IDs.
func validate(task *v1alpha1.Task) error {
	if task.APIVersion != v1alpha1.APIVersion {
		return fmt.Errorf("validation failed: unsupported apiVersion %q", task.APIVersion)
	}
	if strings.TrimSpace(task.Spec.Question) == "" {
		return fmt.Errorf("validation failed: Task spec.question must not be empty")
	}
	return nil
}

// DisplayName labels a parsed task in progress output.
func DisplayName(task *v1alpha1.Task, index int) string {
	if task.Metadata.Name != "" {
		return task.Metadata.Name
	}
	return fmt.Sprintf("task-%d", index+1)
}
