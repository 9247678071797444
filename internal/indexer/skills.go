package indexer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SkillDoc is one recorded skill discovered from a SKILL.md card.
type SkillDoc struct {
	ID          string // directory name holding the card
	SourcePath  string // slash-separated path stored with the hits
	Name        string
	Description string
	Keywords    string
	Raw         []byte // original file bytes, hashed for change detection
	Lines       int
	ModTime     time.Time
}

// CanonicalText is what gets embedded for a skill: the name and description
// carry the skill's meaning; the raw card body is mostly procedure.
func (s SkillDoc) CanonicalText() string {
	var b strings.Builder
	b.WriteString(s.Name)
	if s.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(s.Description)
	}
	if s.Keywords != "" {
		b.WriteString("\nkeywords: ")
		b.WriteString(s.Keywords)
	}
	return b.String()
}

// DiscoverSkills scans root for SKILL.md cards and parses their frontmatter.
// A missing root is not an error; skills are optional corpus content.
func DiscoverSkills(root string) ([]SkillDoc, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat skills root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("skills root is not a directory: %s", root)
	}

	prefix := filepath.Base(root)
	var out []SkillDoc
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != "SKILL.md" {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		sk := parseSkill(raw)
		sk.ID = filepath.Base(filepath.Dir(path))
		sk.SourcePath = filepath.ToSlash(filepath.Join(prefix, rel))
		sk.ModTime = fi.ModTime()
		if sk.Name == "" {
			sk.Name = sk.ID
		}
		out = append(out, sk)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan skills root %s: %w", root, err)
	}
	return out, nil
}

// parseSkill extracts frontmatter fields and falls back to the first body
// paragraph when the card has no description.
func parseSkill(raw []byte) SkillDoc {
	header, body := splitFrontmatter(string(raw))

	sk := SkillDoc{
		Name:        strings.TrimSpace(header["name"]),
		Description: strings.TrimSpace(header["description"]),
		Keywords:    strings.TrimSpace(header["keywords"]),
		Raw:         raw,
		Lines:       countLines(raw),
	}
	if sk.Keywords == "" {
		sk.Keywords = strings.TrimSpace(header["tags"])
	}
	if sk.Description == "" {
		sk.Description = firstBodyLine(body)
	}
	return sk
}

// splitFrontmatter separates a leading YAML frontmatter block from the body.
// Cards without a parseable block return an empty header and the full text.
func splitFrontmatter(content string) (map[string]string, string) {
	s := strings.TrimPrefix(content, "\ufeff")
	rest, ok := strings.CutPrefix(s, "---")
	if !ok {
		return map[string]string{}, content
	}
	head, body, ok := strings.Cut(rest, "\n---")
	if !ok {
		return map[string]string{}, content
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(head), &raw); err != nil {
		return map[string]string{}, content
	}
	header := make(map[string]string, len(raw))
	for k, v := range raw {
		if sv, ok := v.(string); ok {
			header[strings.ToLower(k)] = sv
		}
	}
	return header, strings.TrimPrefix(strings.TrimPrefix(body, "\n"), "\n")
}

func firstBodyLine(body string) string {
	for _, ln := range strings.Split(body, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "#") {
			continue
		}
		return ln
	}
	return ""
}

func countLines(raw []byte) int {
	if len(raw) == 0 {
		return 0
	}
	n := strings.Count(string(raw), "\n")
	if raw[len(raw)-1] != '\n' {
		n++
	}
	return n
}
