package sessions

// Record is the durable form of a session: two entries written and cleared together.
type Record struct {
	Token string `yaml:"token,omitempty"`
	Role  string `yaml:"role,omitempty"`
}

func (r Record) Empty() bool {
	return r.Token == "" && r.Role == ""
}

// Repo persists the session across process restarts.
// Only the Store writes to it.
type Repo interface {
	// Save replaces both entries
	Save(record Record) error

	// Load returns the persisted entries, an empty Record when nothing is stored
	Load() (Record, error)

	// Clear removes both entries. Clearing an empty repo is not an error.
	Clear() error
}
