package loam

// TranscriptMetadata is the frontmatter of one archived generator response.
// It uses "mapstructure" tags to match the YAML keys Loam decodes.
type TranscriptMetadata struct {
	SessionID  string `yaml:"session_id" mapstructure:"session_id"`
	Seq        int    `yaml:"seq" mapstructure:"seq"`
	Steps      int    `yaml:"steps" mapstructure:"steps"`
	Mode       string `yaml:"mode,omitempty" mapstructure:"mode"`
	ReceivedAt string `yaml:"received_at" mapstructure:"received_at"`
}
