// Package proto defines the messages exchanged with the deployment backend.
//
// Every frame is a JSON-encoded Envelope. The Type of the envelope determines
// which of the data structs in this package its Data decodes into.
package proto

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/sidkik/hoist/pkg/config"
	"github.com/sidkik/hoist/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Type identifies the kind of a message.
type Type string

const (
	// GetDeployData requests the catalog of sizes and services.
	GetDeployData Type = "getDeployData"

	// DeployData is the reply to GetDeployData.
	DeployData Type = "deployData"

	// CheckProject asks whether the project already exists remotely.
	CheckProject Type = "checkProject"

	// ProjectStatus is the reply to CheckProject.
	ProjectStatus Type = "projectStatus"

	// Upload carries one chunk of a project transfer.
	Upload Type = "upload"

	// DeployComplete is sent by the server once a deploy finished.
	DeployComplete Type = "deployComplete"

	// TokenError is sent by the server when the token was rejected.
	TokenError Type = "tokenError"

	// Message is a status message that should be shown to the user.
	Message Type = "message"
)

var knownTypes = map[Type]struct{}{
	GetDeployData:  {},
	DeployData:     {},
	CheckProject:   {},
	ProjectStatus:  {},
	Upload:         {},
	DeployComplete: {},
	TokenError:     {},
	Message:        {},
}

// Status is the severity of a message.
type Status string

const (
	StatusInfo  Status = "info"
	StatusWarn  Status = "warn"
	StatusError Status = "error"
)

var knownStatuses = map[Status]struct{}{
	StatusInfo:  {},
	StatusWarn:  {},
	StatusError: {},
}

// Envelope is the frame sent over the connection.
type Envelope struct {
	ConnectionID string              `json:"connId"`
	Token        string              `json:"token"`
	Type         Type                `json:"type"`
	Status       Status              `json:"status"`
	Message      string              `json:"message"`
	Lang         string              `json:"lang,omitempty"`
	Data         jsoniter.RawMessage `json:"data,omitempty"`
}

// Size is a service size offered by the backend.
type Size struct {
	Name   string `json:"name"`
	Memory string `json:"memory"`

	// Multiplier scales the base cost for this size.
	Multiplier float64 `json:"multiplier"`
}

// ServiceKind is a kind of service offered by the backend.
type ServiceKind struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DeployDataPayload is the data of a DeployData message.
type DeployDataPayload struct {
	Sizes     []Size        `json:"sizes"`
	Services  []ServiceKind `json:"services"`
	BaseCost  float64       `json:"baseCost"`
	BaseValue float64       `json:"baseValue"`
}

// CheckProjectPayload is the data of a CheckProject message.
type CheckProjectPayload struct {
	Project string `json:"project"`
}

// ProjectStatusPayload is the data of a ProjectStatus message.
type ProjectStatusPayload struct {
	Exists bool `json:"exists"`

	// Sizes are the service sizes the server accepts. If it's empty, the
	// server didn't send a catalog and services aren't checked.
	Sizes []string `json:"sizes,omitempty"`

	ServerVersion string `json:"serverVersion,omitempty"`
}

// UploadPayload is the data of an Upload message.
type UploadPayload struct {
	Sequence       int             `json:"num"`
	Project        string          `json:"project"`
	IsLast         bool            `json:"last"`
	Chunk          []byte          `json:"chunk"`
	Config         *config.Project `json:"config,omitempty"`
	ProjectChanged bool            `json:"projectChanged"`
}

// DeployCompletePayload is the data of a DeployComplete message.
type DeployCompletePayload struct {
	URL string `json:"url"`
}

// NewEnvelope creates an envelope with `data` encoded as its payload. `data`
// may be nil for messages without a payload.
func NewEnvelope(typ Type, data interface{}) (Envelope, error) {
	env := Envelope{Type: typ, Status: StatusInfo}
	if data == nil {
		return env, nil
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, errors.WithContext(err, "marshal data")
	}
	env.Data = dataBytes
	return env, nil
}

// Encode serializes `env` into a frame.
func Encode(env Envelope) ([]byte, error) {
	if err := validate(env); err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode parses a frame. Frames with an unknown type or status are rejected.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, errors.WithContext(err, "unmarshal")
	}

	if env.Status == "" {
		env.Status = StatusInfo
	}

	if err := validate(env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// DecodeData parses the payload of `env` into `out`.
func DecodeData(env Envelope, out interface{}) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return errors.WithContext(errors.MissingFieldError{Field: "data"}, string(env.Type))
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.WithContext(err, "unmarshal "+string(env.Type))
	}
	return nil
}

func validate(env Envelope) error {
	if _, ok := knownTypes[env.Type]; !ok {
		return errors.New("unknown message type %q", env.Type)
	}
	if _, ok := knownStatuses[env.Status]; !ok {
		return errors.New("unknown message status %q", env.Status)
	}
	return nil
}
