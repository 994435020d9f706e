package domain

import (
	"encoding/json"
	"fmt"
)

// MountDescriptor is the nested name → entry mapping handed to a sandbox.
// It mirrors the tree: one entry per root node, directories recursing over children.
type MountDescriptor map[string]MountEntry

// MountEntry is either a file or a directory, never both.
type MountEntry struct {
	File      *MountFile
	Directory MountDescriptor
}

// MountFile carries the contents of a mounted file.
type MountFile struct {
	Contents string `json:"contents"`
}

// IsDir reports whether the entry describes a directory.
func (e MountEntry) IsDir() bool {
	return e.File == nil
}

type mountEntryJSON struct {
	File      *MountFile       `json:"file,omitempty"`
	Directory *MountDescriptor `json:"directory,omitempty"`
}

// MarshalJSON emits {"file":{...}} or {"directory":{...}}; empty directories keep their "{}".
func (e MountEntry) MarshalJSON() ([]byte, error) {
	if e.File != nil {
		return json.Marshal(mountEntryJSON{File: e.File})
	}
	dir := e.Directory
	if dir == nil {
		dir = MountDescriptor{}
	}
	return json.Marshal(mountEntryJSON{Directory: &dir})
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (e *MountEntry) UnmarshalJSON(data []byte) error {
	var raw mountEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.File != nil && raw.Directory != nil:
		return fmt.Errorf("mount entry is both file and directory")
	case raw.File != nil:
		e.File = raw.File
		e.Directory = nil
	case raw.Directory != nil:
		e.File = nil
		e.Directory = *raw.Directory
	default:
		return fmt.Errorf("mount entry is neither file nor directory")
	}
	return nil
}
