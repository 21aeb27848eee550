package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Profile is the optional ~/.freightctl.toml. Flags win over it.
type Profile struct {
	Server     string `toml:"server"`
	Token      string `toml:"token,omitempty"`
	PageSize   int    `toml:"page_size,omitempty"`
	DebounceMS int    `toml:"debounce_ms,omitempty"`
}

func profilePath() (string, error) {
	if p := os.Getenv("FREIGHTCTL_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".freightctl.toml"), nil
}

func loadProfile() (Profile, error) {
	path, err := profilePath()
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		if os.IsNotExist(err) {
			return Profile{}, nil
		}
		return Profile{}, err
	}
	return p, nil
}
