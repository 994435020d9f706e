package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/forge/pkg/domain"
)

const (
	generatedDir      = "src/components"
	generatedBaseName = "GeneratedComponent"
)

var (
	fencePattern = regexp.MustCompile("(?s)```([^\\n`]*)\\n(.*?)```")

	sourcePattern = regexp.MustCompile(strings.Join([]string{
		`(?m)^\s*import\s+[\w{*'"]`,
		`\bexport\s+(default\s+)?function\b`,
		`(?m)^const\s+[\w$]+\s*=`,
		`\bfunction\s+[\w$]+\s*\(`,
	}, "|"))
)

// parseFallback handles text without a wrapper tag: fenced code blocks first,
// then a whole-text source heuristic.
func parseFallback(text string) Result {
	if steps := parseFences(text); len(steps) > 0 {
		return Result{Steps: steps, Mode: ModeFenced}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed != "" && sourcePattern.MatchString(trimmed) {
		name := generatedBaseName + ".tsx"
		return Result{
			Steps: []domain.Step{fileStep(0, generatedDir+"/"+name, name, trimmed)},
			Mode:  ModeSource,
		}
	}

	return Result{Steps: []domain.Step{}, Mode: ModeNone}
}

func parseFences(text string) []domain.Step {
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	steps := make([]domain.Step, 0, len(matches))
	seq := &sequence{}
	for _, m := range matches {
		id := seq.next()
		name := fmt.Sprintf("%s%d%s", generatedBaseName, id, extensionFor(m[1]))
		steps = append(steps, fileStep(id, generatedDir+"/"+name, name, m[2]))
	}
	return steps
}

// extensionFor guesses a file extension from a fence language tag.
func extensionFor(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch {
	case strings.Contains(lang, "tsx") || strings.Contains(lang, "typescript"):
		return ".tsx"
	case strings.Contains(lang, "jsx") || strings.Contains(lang, "javascript"):
		return ".jsx"
	case strings.Contains(lang, "css"):
		return ".css"
	case strings.Contains(lang, "html"):
		return ".html"
	case strings.Contains(lang, "json"):
		return ".json"
	default:
		return ".txt"
	}
}

func fileStep(id int, path, name, code string) domain.Step {
	return domain.Step{
		ID:          id,
		Title:       fmt.Sprintf("Create %s", name),
		Description: fmt.Sprintf("Create file at path: %s", path),
		Type:        domain.StepCreateFile,
		Status:      domain.StatusPending,
		Code:        code,
		Path:        path,
		Name:        name,
	}
}
