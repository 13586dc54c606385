package passages

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadFile reads a `passages` list from a YAML, JSON or TOML file.
// The format is chosen from the file extension.
func LoadFile(path string) ([]Passage, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read passages file %s: %w", path, err)
	}

	var out []Passage
	if err := v.UnmarshalKey("passages", &out); err != nil {
		return nil, fmt.Errorf("decode passages file %s: %w", path, err)
	}
	return out, nil
}
