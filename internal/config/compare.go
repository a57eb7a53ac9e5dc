package config

import "strings"

// CompareConfig holds the comparison settings.
type CompareConfig struct {
	// KeyPath is the dotted lookup path of an entry's natural key.
	KeyPath string `mapstructure:"key_path" default:"binaryInfo.installName"`
	// NameField labels sequence elements in diagnostic paths.
	NameField string `mapstructure:"name_field" default:"name"`
	// Strict makes any mismatched entry fail its target list.
	Strict bool `mapstructure:"strict" default:"false"`
	// ExitZero always exits 0, for automation that scrapes stdout instead.
	ExitZero bool `mapstructure:"exit_zero" default:"false"`
	// Color is auto, always or never.
	Color string `mapstructure:"color" default:"auto"`
	// Format forces the snapshot encoding (auto, json, yaml).
	Format string `mapstructure:"format" default:"auto"`
}

// KeyPathFields splits KeyPath into its fields.
func (c CompareConfig) KeyPathFields() []string {
	var fields []string
	for _, f := range strings.Split(c.KeyPath, ".") {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
