package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// UnknownKeyWarnings reports keys in content that no config field reads.
func UnknownKeyWarnings(content string) []string {
	var decoded Config
	md, err := toml.Decode(content, &decoded)
	if err != nil {
		return nil
	}

	var warnings []string
	for _, key := range md.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("unknown config key %q is ignored", key.String()))
	}
	return warnings
}
