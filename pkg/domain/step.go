package domain

// StepType identifies what a build instruction does.
type StepType string

const (
	StepCreateFolder StepType = "CreateFolder"
	StepCreateFile   StepType = "CreateFile"
	// StepEditFile and StepDeleteFile are reserved; the parser never emits them.
	StepEditFile   StepType = "EditFile"
	StepDeleteFile StepType = "DeleteFile"
	StepRunScript  StepType = "RunScript"
)

// StepStatus is the lifecycle position of a step.
type StepStatus string

const (
	StatusPending    StepStatus = "pending"
	StatusInProgress StepStatus = "in-progress"
	StatusCompleted  StepStatus = "completed"
)

// Step is one instruction extracted from generator text.
//
// ID is only unique within the parse call that produced it. Steps from several
// responses accumulated into one project may repeat IDs; address them by index.
type Step struct {
	ID          int        `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Type        StepType   `json:"type" yaml:"type"`
	Status      StepStatus `json:"status" yaml:"status"`

	// Code is the raw payload: file contents or shell command text.
	Code string `json:"code,omitempty" yaml:"code,omitempty"`
	// Path is the slash-delimited target, set for CreateFile.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	Name string `json:"name" yaml:"name"`
}

// IsPending reports whether the step still waits for materialization.
func (s Step) IsPending() bool {
	return s.Status == StatusPending
}

// AffectsTree reports whether applying the step changes the file tree.
func (s Step) AffectsTree() bool {
	return s.Type == StepCreateFile
}
