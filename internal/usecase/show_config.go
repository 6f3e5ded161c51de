package usecase

import (
	"context"
	"fmt"

	"github.com/barkain/scout/internal/domain"
)

// ShowConfigInput contains the parameters for showing configuration.
type ShowConfigInput struct{}

// ShowConfigOutput contains the effective configuration and the files
// it was merged from.
type ShowConfigOutput struct {
	Config *domain.Config
	Local  domain.ConfigInfo
	Global domain.ConfigInfo
}

// ShowConfig is the use case for showing the effective configuration.
type ShowConfig struct {
	loader  domain.ConfigLoader
	manager domain.ConfigManager
}

// NewShowConfig creates a new ShowConfig use case.
func NewShowConfig(loader domain.ConfigLoader, manager domain.ConfigManager) *ShowConfig {
	return &ShowConfig{
		loader:  loader,
		manager: manager,
	}
}

// Execute loads the merged configuration along with file provenance.
func (uc *ShowConfig) Execute(_ context.Context, _ ShowConfigInput) (*ShowConfigOutput, error) {
	cfg, err := uc.loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &ShowConfigOutput{
		Config: cfg,
		Local:  uc.manager.LocalConfigInfo(),
		Global: uc.manager.GlobalConfigInfo(),
	}, nil
}
