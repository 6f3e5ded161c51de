package usecase

import (
	"context"

	"github.com/barkain/scout/internal/domain"
)

// InitConfigInput contains the parameters for creating a config file.
type InitConfigInput struct {
	Global bool // Create the global config instead of the local one
}

// InitConfigOutput contains the result of creating a config file.
type InitConfigOutput struct {
	Path string // Path of the created config file
}

// InitConfig is the use case for creating a config file from the
// default template.
type InitConfig struct {
	manager domain.ConfigManager
}

// NewInitConfig creates a new InitConfig use case.
func NewInitConfig(manager domain.ConfigManager) *InitConfig {
	return &InitConfig{manager: manager}
}

// Execute creates the config file. Returns ErrConfigExists if one
// already exists at the target path.
func (uc *InitConfig) Execute(_ context.Context, in InitConfigInput) (*InitConfigOutput, error) {
	if in.Global {
		if err := uc.manager.InitGlobalConfig(); err != nil {
			return nil, err
		}
		return &InitConfigOutput{Path: uc.manager.GlobalConfigInfo().Path}, nil
	}
	if err := uc.manager.InitLocalConfig(); err != nil {
		return nil, err
	}
	return &InitConfigOutput{Path: uc.manager.LocalConfigInfo().Path}, nil
}
