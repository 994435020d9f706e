package domain

import "strings"

// SplitPath strips leading separators and splits on "/", discarding empty and "." segments.
func SplitPath(path string) []string {
	raw := strings.Split(strings.TrimLeft(path, "/"), "/")
	segments := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg != "" && seg != "." {
			segments = append(segments, seg)
		}
	}
	return segments
}

// CheckSegments rejects segments that cannot name a node inside the tree.
func CheckSegments(segments []string) error {
	if len(segments) == 0 {
		return ErrEmptyPath
	}
	for _, seg := range segments {
		if seg == ".." || strings.Contains(seg, `\`) {
			return ErrInvalidPath
		}
	}
	return nil
}

// JoinPath builds the tree path of a node from its segments.
func JoinPath(segments []string) string {
	return "/" + strings.Join(segments, "/")
}
