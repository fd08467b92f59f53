package core

// DefaultAgentName is used when an agent has to be created for a session.
const DefaultAgentName = "agentchat-mermaid-agent"

// DefaultInstructions are the fixed instructions of agents created by the
// front-ends.
const DefaultInstructions = "You are a helpful assistant. " +
	"When appropriate, you may return Mermaid diagrams inside triple-backtick fenced blocks " +
	"with the language identifier 'mermaid'. " +
	"You may also return Markdown, text, or image links."

// AgentSpec describes an agent to create on the remote service.
type AgentSpec struct {
	Name         string `json:"name" yaml:"name"`
	Model        string `json:"model" yaml:"model"`
	Instructions string `json:"instructions" yaml:"instructions"`
}

// WithDefaults fills empty fields with DefaultAgentName and DefaultInstructions.
func (s AgentSpec) WithDefaults() AgentSpec {
	if s.Name == "" {
		s.Name = DefaultAgentName
	}
	if s.Instructions == "" {
		s.Instructions = DefaultInstructions
	}
	return s
}
