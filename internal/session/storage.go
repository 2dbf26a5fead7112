package session

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/krancour/openshred/internal/file"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

const (
	configFileName     = "config"
	sessionFileName    = "session"
	oauthStateFileName = "oauth_state"
)

// Config is the client configuration kept alongside the session.
type Config struct {
	APIAddress string `json:"apiAddress"`
}

// Storage is durable storage for a persisted session.
type Storage interface {
	// Load returns the persisted session, or nil if there is none.
	Load() (*Persisted, error)
	// Save replaces the persisted session.
	Save(Persisted) error
}

// FileStorage keeps a persisted session, the client's Config and the state of
// any OAuth flow in progress as files in a directory.
type FileStorage struct {
	dir string
}

// NewFileStorage returns FileStorage rooted at the specified directory. The
// directory is created on first write.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{
		dir: dir,
	}
}

// DefaultDir returns the directory OpenShred keeps its files in when none is
// specified.
func DefaultDir() (string, error) {
	homeDir, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "error locating user's home directory")
	}
	return filepath.Join(homeDir, ".openshred"), nil
}

// Dir returns the directory the FileStorage is rooted at.
func (f *FileStorage) Dir() string {
	return f.dir
}

// Load implements Storage.
func (f *FileStorage) Load() (*Persisted, error) {
	sessionFile := filepath.Join(f.dir, sessionFileName)
	if !file.Exists(sessionFile) {
		return nil, nil
	}
	data, err := ioutil.ReadFile(sessionFile)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading session file %s", sessionFile)
	}
	persisted, err := UnmarshalPersisted(data)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing session file %s", sessionFile)
	}
	return &persisted, nil
}

// Save implements Storage.
func (f *FileStorage) Save(persisted Persisted) error {
	data, err := MarshalPersisted(persisted)
	if err != nil {
		return errors.Wrap(err, "error marshaling session")
	}
	return f.write(sessionFileName, data)
}

// Config returns the saved Config, or nil if none has been saved.
func (f *FileStorage) Config() (*Config, error) {
	configFile := filepath.Join(f.dir, configFileName)
	if !file.Exists(configFile) {
		return nil, nil
	}
	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file %s", configFile)
	}
	config := &Config{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "error parsing config file %s", configFile)
	}
	return config, nil
}

// SaveConfig replaces the saved Config.
func (f *FileStorage) SaveConfig(config Config) error {
	data, err := json.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}
	return f.write(configFileName, data)
}

// DeleteConfig forgets the saved Config, if any.
func (f *FileStorage) DeleteConfig() error {
	return f.remove(configFileName)
}

// SaveOAuthState records the state of an OAuth flow in progress.
func (f *FileStorage) SaveOAuthState(state string) error {
	return f.write(oauthStateFileName, []byte(state))
}

// OAuthState returns the state of the OAuth flow in progress, or an empty
// string if there is none.
func (f *FileStorage) OAuthState() (string, error) {
	stateFile := filepath.Join(f.dir, oauthStateFileName)
	if !file.Exists(stateFile) {
		return "", nil
	}
	data, err := ioutil.ReadFile(stateFile)
	if err != nil {
		return "", errors.Wrapf(err, "error reading OAuth state file %s", stateFile)
	}
	return strings.TrimSpace(string(data)), nil
}

// DeleteOAuthState forgets the OAuth flow in progress, if any.
func (f *FileStorage) DeleteOAuthState() error {
	return f.remove(oauthStateFileName)
}

func (f *FileStorage) remove(name string) error {
	path := filepath.Join(f.dir, name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "error deleting %s", path)
	}
	return nil
}

func (f *FileStorage) write(name string, data []byte) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return errors.Wrapf(err, "error creating directory %s", f.dir)
	}
	path := filepath.Join(f.dir, name)
	if err := ioutil.WriteFile(path, data, 0600); err != nil {
		return errors.Wrapf(err, "error writing to %s", path)
	}
	return nil
}
