package command

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/patternbot/internal/domain"
	domcmd "github.com/kailas-cloud/patternbot/internal/domain/command"
)

// Service registers the bot's command schemas with the platform.
type Service struct {
	client   PlatformClient
	appID    string
	commands []domcmd.Command
}

// New creates a registrar for appID publishing commands.
func New(client PlatformClient, appID string, commands []domcmd.Command) *Service {
	return &Service{client: client, appID: appID, commands: commands}
}

// Install replaces every global command with the configured set.
// Calling it again with the same set is a no-op on the platform side.
func (s *Service) Install(ctx context.Context) ([]domcmd.Command, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	registered, err := s.client.BulkOverwriteGlobalCommands(ctx, s.appID, s.commands)
	if err != nil {
		return nil, fmt.Errorf("install commands for app %s: %w", s.appID, err)
	}
	return registered, nil
}

// List returns the global commands the platform currently knows about.
func (s *Service) List(ctx context.Context) ([]domcmd.Command, error) {
	if s.appID == "" {
		return nil, fmt.Errorf("%w: application id is required", domain.ErrInvalidCommand)
	}
	cmds, err := s.client.ListGlobalCommands(ctx, s.appID)
	if err != nil {
		return nil, fmt.Errorf("list commands for app %s: %w", s.appID, err)
	}
	return cmds, nil
}

func (s *Service) validate() error {
	if s.appID == "" {
		return fmt.Errorf("%w: application id is required", domain.ErrInvalidCommand)
	}
	seen := make(map[string]struct{}, len(s.commands))
	for _, c := range s.commands {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidCommand, err)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: duplicate command %q", domain.ErrInvalidCommand, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}
