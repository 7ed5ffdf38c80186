package filerepo

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/kaziflow-client/sessions"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var _ sessions.Repo = (*Repo)(nil)

type document struct {
	Token  string `yaml:"token,omitempty"`
	Role   string `yaml:"role,omitempty"`
	Sealed bool   `yaml:"sealed,omitempty"`
}

// Repo keeps the session in a single YAML file. Writes go to a temp file that
// is renamed into place, so the token and role entries always change together.
type Repo struct {
	path       string
	passphrase []byte
	lock       sync.Mutex
}

// New returns a repo backed by path. A non-empty passphrase seals the token at
// rest under an scrypt-derived key.
func New(path, passphrase string) *Repo {
	r := &Repo{path: path}
	if passphrase != "" {
		r.passphrase = []byte(passphrase)
	}
	return r
}

func (r *Repo) Path() string {
	return r.path
}

func (r *Repo) Save(record sessions.Record) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	doc := document{Token: record.Token, Role: record.Role}
	if r.passphrase != nil && doc.Token != "" {
		sealed, err := seal(r.passphrase, doc.Token)
		if err != nil {
			return errors.Wrap(err, "[filerepo Save] failed to seal token")
		}
		doc.Token = sealed
		doc.Sealed = true
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "[filerepo Save] failed to encode session")
	}
	return r.writeAtomic(data)
}

func (r *Repo) Load() (sessions.Record, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return sessions.Record{}, nil
	}
	if err != nil {
		return sessions.Record{}, errors.Wrap(err, "[filerepo Load] failed to read session file")
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return sessions.Record{}, errors.Wrap(err, "[filerepo Load] failed to decode session file")
	}

	if doc.Sealed {
		if r.passphrase == nil {
			return sessions.Record{}, errors.New("[filerepo Load] stored token is sealed and no store key is configured")
		}
		token, err := open(r.passphrase, doc.Token)
		if err != nil {
			return sessions.Record{}, errors.Wrap(err, "[filerepo Load] failed to unseal token")
		}
		doc.Token = token
	}

	return sessions.Record{Token: doc.Token, Role: doc.Role}, nil
}

func (r *Repo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[filerepo Clear] failed to remove session file")
	}
	return nil
}

func (r *Repo) writeAtomic(data []byte) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "[filerepo Save] failed to create session directory")
	}

	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return errors.Wrap(err, "[filerepo Save] failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filerepo Save] failed to write temp file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filerepo Save] failed to restrict temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[filerepo Save] failed to close temp file")
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return errors.Wrap(err, "[filerepo Save] failed to replace session file")
	}
	return nil
}
