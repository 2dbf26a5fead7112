package session

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// PersistedVersion is the version of the persisted session format written by
// this client.
const PersistedVersion = 1

// persistedSchema describes every persisted session format this client can
// read.
const persistedSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version"],
  "additionalProperties": false,
  "properties": {
    "version": {
      "type": "integer",
      "enum": [1]
    },
    "userId": {
      "type": "string"
    },
    "token": {
      "type": "string"
    }
  }
}`

var persistedSchemaLoader = gojsonschema.NewStringLoader(persistedSchema)

// Persisted is the subset of a session that survives a restart. It never
// includes the user's profile or any loading status.
type Persisted struct {
	Version int    `json:"version"`
	UserID  string `json:"userId,omitempty"`
	Token   string `json:"token,omitempty"`
}

func toPersisted(state State) Persisted {
	return Persisted{
		Version: PersistedVersion,
		UserID:  state.UserID,
		Token:   state.Token,
	}
}

func fromPersisted(persisted Persisted) State {
	return State{
		UserID:    persisted.UserID,
		Token:     persisted.Token,
		IsLoading: true,
	}
}

// MarshalPersisted serializes a persisted session.
func MarshalPersisted(persisted Persisted) ([]byte, error) {
	if persisted.Version == 0 {
		persisted.Version = PersistedVersion
	}
	return json.Marshal(persisted)
}

// UnmarshalPersisted validates and deserializes a persisted session.
func UnmarshalPersisted(data []byte) (Persisted, error) {
	persisted := Persisted{}
	result, err := gojsonschema.Validate(
		persistedSchemaLoader,
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return persisted, errors.Wrap(err, "error validating persisted session")
	}
	if !result.Valid() {
		verrStrs := make([]string, len(result.Errors()))
		for i, verr := range result.Errors() {
			verrStrs[i] = verr.String()
		}
		return persisted, errors.Errorf(
			"persisted session failed JSON validation: %v",
			verrStrs,
		)
	}
	if err := json.Unmarshal(data, &persisted); err != nil {
		return persisted, errors.Wrap(err, "error unmarshaling persisted session")
	}
	return persisted, nil
}
