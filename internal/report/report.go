package report

import (
	"bytes"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is one processed file in the report.
type File struct {
	Path    string
	Changes int
	Error   string
}

// Report summarises a migration run.
type Report struct {
	Root    string
	DryRun  bool
	Found   int
	Updated int
	Failed  int
	Files   []File
}

// Marshal returns YAML bytes with a fixed key order and a single trailing newline.
func Marshal(r Report) ([]byte, error) {
	top := &yaml.Node{Kind: yaml.MappingNode}
	top.Content = append(top.Content,
		scalarNode("root"), scalarFrom(r.Root),
		scalarNode("dryRun"), scalarFrom(r.DryRun),
		scalarNode("found"), scalarFrom(r.Found),
		scalarNode("updated"), scalarFrom(r.Updated),
		scalarNode("failed"), scalarFrom(r.Failed),
		scalarNode("files"), filesNode(r.Files),
	)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(top); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	out = append(out, '\n')
	return out, nil
}

// Write writes the report to path, creating parent directories.
func Write(path string, r Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func filesNode(files []File) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode}
	for _, f := range files {
		m := &yaml.Node{Kind: yaml.MappingNode}
		m.Content = append(m.Content,
			scalarNode("path"), scalarFrom(f.Path),
			scalarNode("changes"), scalarFrom(f.Changes),
		)
		if f.Error != "" {
			m.Content = append(m.Content, scalarNode("error"), scalarFrom(f.Error))
		}
		n.Content = append(n.Content, m)
	}
	return n
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func scalarFrom(v any) *yaml.Node {
	n := &yaml.Node{}
	_ = n.Encode(v)
	return n
}
