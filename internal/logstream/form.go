package logstream

// Source is one streamable service from the catalog.
type Source struct {
	ID   string `json:"ID"`
	Name string `json:"Name"`
}

// FormState is the user's stream configuration. It outlives sessions:
// stopping a stream never resets it.
type FormState struct {
	Source     Source
	Tail       string
	Since      SinceInput
	Follow     bool
	Timestamps bool
	Stdout     bool
	Stderr     bool
	Details    bool
}

// DefaultForm returns the initial form: last 20 lines of the past hour from
// both output streams, not following.
func DefaultForm() FormState {
	return FormState{
		Tail:   "20",
		Since:  DefaultSinceInput(),
		Stdout: true,
		Stderr: true,
	}
}

// Session is the configuration of one running stream.
type Session struct {
	ID         string
	Source     Source
	Tail       int
	Since      string
	Follow     bool
	Timestamps bool
	Stdout     bool
	Stderr     bool
	Details    bool
	Active     bool
}
