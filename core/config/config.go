// Package config loads sandbox profiles: the initial environment,
// filesystem seed, execution limits and network allow-list for a run.
package config

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Profile is the on-disk sandbox configuration.
type Profile struct {
	// Cwd is the initial working directory.
	Cwd string `json:"cwd"`

	// Env seeds exported variables.
	Env map[string]string `json:"env"`

	Limits Limits `json:"limits"`

	// Files seeds the virtual filesystem before the script runs.
	Files []FileEntry `json:"files" validate:"dive"`

	Network Network `json:"network"`
}

type Limits struct {
	MaxCallDepth int `json:"max_call_depth" validate:"gte=0"`
	MaxCommands  int `json:"max_commands" validate:"gte=0"`
	MaxLoopIter  int `json:"max_loop_iterations" validate:"gte=0"`
	// TimeoutMs bounds wall-clock execution; 0 means no timeout.
	TimeoutMs int `json:"timeout_ms" validate:"gte=0"`
}

type FileEntry struct {
	Path    string `json:"path" validate:"required"`
	Content string `json:"content"`
	Dir     bool   `json:"dir"`
	Mode    uint32 `json:"mode" validate:"lte=0o7777"`
}

type Network struct {
	// AllowHosts enables outbound HTTP to exact hostnames or *.suffix
	// wildcards. Empty keeps the sandbox fully hermetic.
	AllowHosts []string `json:"allow_hosts"`
	// RequestsPerSecond throttles the adapter; 0 means one per second.
	RequestsPerSecond float64 `json:"requests_per_second" validate:"gte=0"`
}

// Validate the profile for basic semantic errors.
func (p *Profile) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})
	return validate.Struct(p)
}
