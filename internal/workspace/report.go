package workspace

// Artifact identifies what a bootstrap step operated on.
type Artifact string

const (
	ArtifactDirectory       Artifact = "directory"
	ArtifactMigrationConfig Artifact = "migration_config"
	ArtifactEnvFile         Artifact = "env_file"
)

// ActionKind is the outcome of one bootstrap step.
type ActionKind string

const (
	ActionCreated    ActionKind = "created"
	ActionAsserted   ActionKind = "asserted"
	ActionExists     ActionKind = "exists"
	ActionNoTemplate ActionKind = "no_template"
)

// Action records a single step. Path is relative to the workspace root.
type Action struct {
	Artifact Artifact
	Path     string
	Kind     ActionKind
}

// Report summarizes one Bootstrap call.
type Report struct {
	RunID   string
	Root    string
	Force   bool
	Actions []Action
}

func (r *Report) add(artifact Artifact, path string, kind ActionKind) {
	r.Actions = append(r.Actions, Action{Artifact: artifact, Path: path, Kind: kind})
}

// Count returns how many actions ended with kind.
func (r *Report) Count(kind ActionKind) int {
	n := 0
	for _, a := range r.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Changed reports whether the run created anything.
func (r *Report) Changed() bool {
	return r.Count(ActionCreated) > 0
}
