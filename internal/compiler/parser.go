package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/forge/pkg/domain"
)

const (
	// DefaultWrapperTag encloses a whole generated project.
	DefaultWrapperTag = "boltArtifact"
	// DefaultActionTag describes one file write or shell command.
	DefaultActionTag = "boltAction"

	defaultTitle    = "Unknown Project"
	defaultFilePath = "unknown.txt"
	runCommandName  = "Run Command"
)

// Mode tells which strategy produced a parse result.
type Mode string

const (
	ModeNone     Mode = "none"
	ModeArtifact Mode = "artifact"
	ModeFenced   Mode = "fenced"
	ModeSource   Mode = "source"
)

// Result is the outcome of one parse call.
type Result struct {
	Steps []domain.Step
	Mode  Mode
}

// Fallback reports whether the steps came from a heuristic instead of the tag structure.
func (r Result) Fallback() bool {
	return r.Mode == ModeFenced || r.Mode == ModeSource
}

// Parser is responsible for converting generator text into build steps.
// It never fails: unrecognized input degrades to fewer steps.
type Parser struct {
	wrapperTag string
	actionTag  string
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithTags overrides the wrapper and action tag names.
func WithTags(wrapper, action string) ParserOption {
	return func(p *Parser) {
		if wrapper != "" {
			p.wrapperTag = wrapper
		}
		if action != "" {
			p.actionTag = action
		}
	}
}

// NewParser creates a new parser instance.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		wrapperTag: DefaultWrapperTag,
		actionTag:  DefaultActionTag,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse converts text into steps, in encounter order, with IDs counting from 0.
func (p *Parser) Parse(text string) Result {
	wrapper, found, terminated := lexer{src: text, name: p.wrapperTag}.next(0)
	if !found || !terminated {
		return parseFallback(text)
	}

	var attrs artifactAttrs
	decodeAttrs(wrapper.attrs, &attrs)
	title := valueOr(attrs.Title, defaultTitle)

	seq := &sequence{}
	steps := []domain.Step{{
		ID:          seq.next(),
		Title:       title,
		Description: fmt.Sprintf("Initialize project: %s", title),
		Type:        domain.StepCreateFolder,
		Status:      domain.StatusPending,
		Name:        title,
	}}

	body := wrapper.body(text)
	actions := lexer{src: body, name: p.actionTag}
	pos := 0
	for {
		action, found, terminated := actions.next(pos)
		if !found || !terminated {
			break
		}
		pos = action.end

		if step, ok := actionStep(action, body, seq); ok {
			steps = append(steps, step)
		}
	}

	return Result{Steps: steps, Mode: ModeArtifact}
}

func actionStep(action tag, src string, seq *sequence) (domain.Step, bool) {
	var attrs actionAttrs
	decodeAttrs(action.attrs, &attrs)

	switch valueOr(attrs.Type, "") {
	case "file":
		filePath := valueOr(attrs.FilePath, defaultFilePath)
		name := baseName(filePath)
		return domain.Step{
			ID:          seq.next(),
			Title:       fmt.Sprintf("Create %s", name),
			Description: fmt.Sprintf("Create file at path: %s", filePath),
			Type:        domain.StepCreateFile,
			Status:      domain.StatusPending,
			Code:        action.body(src),
			Path:        filePath,
			Name:        name,
		}, true
	case "shell":
		command := strings.TrimSpace(action.body(src))
		return domain.Step{
			ID:          seq.next(),
			Title:       runCommandName,
			Description: fmt.Sprintf("Execute: %s", command),
			Type:        domain.StepRunScript,
			Status:      domain.StatusPending,
			Code:        command,
			Name:        runCommandName,
		}, true
	default:
		return domain.Step{}, false
	}
}

// baseName returns the final path segment, or the whole path when it ends in a slash.
func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 && i < len(path)-1 {
		return path[i+1:]
	}
	return path
}

type sequence struct {
	n int
}

func (s *sequence) next() int {
	id := s.n
	s.n++
	return id
}
