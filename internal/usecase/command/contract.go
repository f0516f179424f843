package command

import (
	"context"

	domcmd "github.com/kailas-cloud/patternbot/internal/domain/command"
)

// PlatformClient manages global application commands on the platform.
type PlatformClient interface {
	BulkOverwriteGlobalCommands(ctx context.Context, appID string, cmds []domcmd.Command) ([]domcmd.Command, error)
	ListGlobalCommands(ctx context.Context, appID string) ([]domcmd.Command, error)
}
