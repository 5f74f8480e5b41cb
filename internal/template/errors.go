package template

import "fmt"

// ConfigError reports a template configuration that cannot be parsed: a
// missing required key, an unknown fieldType, empty fieldBlocks, or a
// configuration that produces zero bubbles. When the fault lies in one block
// it names that block; the empty-fieldBlocks and zero-bubbles errors leave
// Block empty.
type ConfigError struct {
	Block string
	Key   string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("template: block %q: missing or invalid %q: %s", e.Block, e.Key, e.Msg)
	}
	return fmt.Sprintf("template: block %q: %s", e.Block, e.Msg)
}

func missingKey(block, key string) error {
	return &ConfigError{Block: block, Key: key, Msg: "required key is missing"}
}
