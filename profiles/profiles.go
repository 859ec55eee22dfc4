package profiles

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spawnkit/spawnkit/syncx"
	"gopkg.in/yaml.v3"
)

// Profile is a named, user-edited launch preset.
type Profile struct {
	Args []string          `yaml:"args"`
	Dir  string            `yaml:"dir,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
	// nil = follow the daemon's disclaim_by_default
	Disclaim *bool `yaml:"disclaim,omitempty"`
	Pty      bool  `yaml:"pty,omitempty"`
}

var ErrNotFound = errors.New("profile not found")

func parse(data []byte) (map[string]Profile, error) {
	var profiles map[string]Profile
	err := yaml.Unmarshal(data, &profiles)
	if err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	for name, p := range profiles {
		if len(p.Args) == 0 {
			return nil, fmt.Errorf("profile %q: empty args", name)
		}
	}

	return profiles, nil
}

// Store holds the parsed profiles file and reloads it on demand.
type Store struct {
	path string

	mu       syncx.RWMutex
	profiles map[string]Profile

	// closed channels are delivered on every successful reload
	Changed *syncx.Broadcaster[struct{}]
}

func NewStore(path string) (*Store, error) {
	s := &Store{
		path:    path,
		Changed: syncx.NewBroadcaster[struct{}](),
	}

	err := s.Reload()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// no profiles file is fine
			data = nil
		} else {
			return err
		}
	}

	profiles, err := parse(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.profiles = profiles
	s.mu.Unlock()

	s.Changed.TryEmit(struct{}{})
	return nil
}

func (s *Store) Get(name string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

func (s *Store) All() map[string]Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Profile, len(s.profiles))
	for name, p := range s.profiles {
		out[name] = p
	}
	return out
}

func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
