package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/components/dashboard/commands"
)

// Executor is the write side shared by every transport.
type Executor interface {
	SaveDashboard(ctx context.Context, input commands.SaveDashboardInput) error
	DeleteDashboard(ctx context.Context, input commands.DashboardIDInput) error
	PublishDashboard(ctx context.Context, input commands.DashboardIDInput) error
	DuplicateDashboard(ctx context.Context, input commands.DuplicateDashboardInput) error
	AddWidget(ctx context.Context, input commands.AddWidgetInput) error
	UpdateWidget(ctx context.Context, input commands.UpdateWidgetConfigInput) error
	RemoveWidget(ctx context.Context, input commands.RemoveWidgetInput) error
	Reorder(ctx context.Context, input commands.ReorderWidgetsInput) error
	Refresh(ctx context.Context, input commands.RefreshWidgetInput) error
	Preferences(ctx context.Context, input commands.SavePreferencesInput) error
}

// CommandExecutor adapts go-command commanders to Executor.
type CommandExecutor struct {
	Save       gocommand.Commander[commands.SaveDashboardInput]
	Delete     gocommand.Commander[commands.DashboardIDInput]
	Publish    gocommand.Commander[commands.DashboardIDInput]
	Duplicate  gocommand.Commander[commands.DuplicateDashboardInput]
	Add        gocommand.Commander[commands.AddWidgetInput]
	Update     gocommand.Commander[commands.UpdateWidgetConfigInput]
	Remove     gocommand.Commander[commands.RemoveWidgetInput]
	ReorderCmd gocommand.Commander[commands.ReorderWidgetsInput]
	RefreshCmd gocommand.Commander[commands.RefreshWidgetInput]
	PrefsCmd   gocommand.Commander[commands.SavePreferencesInput]
}

var _ Executor = (*CommandExecutor)(nil)

// NewCommandExecutor wires every command against the service.
func NewCommandExecutor(service *dashboard.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		Save:       commands.NewSaveDashboardCommand(service, telemetry),
		Delete:     commands.NewDeleteDashboardCommand(service, telemetry),
		Publish:    commands.NewPublishDashboardCommand(service, telemetry),
		Duplicate:  commands.NewDuplicateDashboardCommand(service, telemetry),
		Add:        commands.NewAddWidgetCommand(service, telemetry),
		Update:     commands.NewUpdateWidgetConfigCommand(service, telemetry),
		Remove:     commands.NewRemoveWidgetCommand(service, telemetry),
		ReorderCmd: commands.NewReorderWidgetsCommand(service, telemetry),
		RefreshCmd: commands.NewRefreshWidgetCommand(service, telemetry),
		PrefsCmd:   commands.NewSavePreferencesCommand(service, telemetry),
	}
}

var errCommandMissing = errors.New("httpapi: command not configured")

func run[T any](ctx context.Context, cmd gocommand.Commander[T], msg T) error {
	if cmd == nil {
		return errCommandMissing
	}
	return cmd.Execute(ctx, msg)
}

func (e *CommandExecutor) SaveDashboard(ctx context.Context, input commands.SaveDashboardInput) error {
	return run(ctx, e.Save, input)
}

func (e *CommandExecutor) DeleteDashboard(ctx context.Context, input commands.DashboardIDInput) error {
	return run(ctx, e.Delete, input)
}

func (e *CommandExecutor) PublishDashboard(ctx context.Context, input commands.DashboardIDInput) error {
	return run(ctx, e.Publish, input)
}

func (e *CommandExecutor) DuplicateDashboard(ctx context.Context, input commands.DuplicateDashboardInput) error {
	return run(ctx, e.Duplicate, input)
}

func (e *CommandExecutor) AddWidget(ctx context.Context, input commands.AddWidgetInput) error {
	return run(ctx, e.Add, input)
}

func (e *CommandExecutor) UpdateWidget(ctx context.Context, input commands.UpdateWidgetConfigInput) error {
	return run(ctx, e.Update, input)
}

func (e *CommandExecutor) RemoveWidget(ctx context.Context, input commands.RemoveWidgetInput) error {
	return run(ctx, e.Remove, input)
}

func (e *CommandExecutor) Reorder(ctx context.Context, input commands.ReorderWidgetsInput) error {
	return run(ctx, e.ReorderCmd, input)
}

func (e *CommandExecutor) Refresh(ctx context.Context, input commands.RefreshWidgetInput) error {
	return run(ctx, e.RefreshCmd, input)
}

func (e *CommandExecutor) Preferences(ctx context.Context, input commands.SavePreferencesInput) error {
	return run(ctx, e.PrefsCmd, input)
}
