package mappings

// Config holds configuration for the saved-mappings store.
type Config struct {
	// Path is the file path of the mappings database.
	Path string `mapstructure:"path" default:"mappings.db"`
}
