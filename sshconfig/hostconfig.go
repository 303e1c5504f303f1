// Package sshconfig resolves host aliases to connection parameters by
// reading an OpenSSH-style config file.
package sshconfig

import "github.com/creasty/defaults"

// HostConfig holds the resolved connection parameters for one alias.
type HostConfig struct {
	Alias string

	HostName       string
	User           string
	Port           int `default:"22"`
	IdentityFile   string
	ProxyCommand   string
	IdentitiesOnly bool
	ProxyUseFdpass bool
}

// SetDefaults applies the struct's default tags (currently just Port).
func (c *HostConfig) SetDefaults() error {
	return defaults.Set(c)
}

// Ready reports whether the config carries enough information for the
// Establisher to open a connection: both HostName and User are required.
func (c *HostConfig) Ready() bool {
	return c.HostName != "" && c.User != ""
}
