package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported accounts schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	Phone           string        `toml:"phone"`
	SessionRef      string        `toml:"session_ref"`
	SessionKind     string        `toml:"session_kind"`
	VerificationURL string        `toml:"verification_url"`
	Authenticated   bool          `toml:"authenticated"`
	LastActive      string        `toml:"last_active"`
	Profile         profileSchema `toml:"profile"`
}

type profileSchema struct {
	DisplayName string `toml:"display_name"`
	Username    string `toml:"username"`
	UserID      int64  `toml:"user_id"`
	Phone       string `toml:"phone,omitempty"`
}
