package databricks

import (
	"context"
	"net/http"

	"github.com/databricks/databricks-sdk-go/service/compute"
	"github.com/pkg/errors"
)

// Command languages.
const (
	LanguagePython = string(compute.LanguagePython)
	LanguageScala  = string(compute.LanguageScala)
	LanguageSQL    = string(compute.LanguageSql)
)

// Command and execution context statuses.
const (
	CommandStatusQueued    = string(compute.CommandStatusQueued)
	CommandStatusRunning   = string(compute.CommandStatusRunning)
	CommandStatusFinished  = string(compute.CommandStatusFinished)
	CommandStatusCancelled = string(compute.CommandStatusCancelled)
	CommandStatusError     = string(compute.CommandStatusError)

	ContextStatusPending = string(compute.ContextStatusPending)
	ContextStatusRunning = string(compute.ContextStatusRunning)
	ContextStatusError   = string(compute.ContextStatusError)
)

// ResultTypeError marks the results of a command that failed.
const ResultTypeError = string(compute.ResultTypeError)

// ErrCommandFailed indicates a command did not finish successfully.
var ErrCommandFailed = errors.New("command failed")

// CommandResults is the output of a finished command.
type CommandResults struct {
	ResultType string      `json:"resultType"`
	Data       interface{} `json:"data,omitempty"`
	Summary    string      `json:"summary,omitempty"`
	Cause      string      `json:"cause,omitempty"`
}

// CommandStatus is the state of a command.
type CommandStatus struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Results *CommandResults `json:"results,omitempty"`
}

// CreateContext creates an execution context for language on a cluster.
func (c *Client) CreateContext(ctx context.Context, clusterID, language string) (string, error) {
	var id string
	err := c.call(ctx, http.MethodPost, "/api/1.2/contexts/create", func(ctx context.Context) error {
		wait, err := c.ws.CommandExecution.Create(ctx, compute.CreateContext{
			ClusterId: clusterID,
			Language:  compute.Language(language),
		})
		if err != nil {
			return err
		}
		id = wait.Response.Id
		return nil
	})
	return id, err
}

// ContextStatus returns the status of an execution context.
func (c *Client) ContextStatus(ctx context.Context, clusterID, contextID string) (string, error) {
	var status string
	err := c.call(ctx, http.MethodGet, "/api/1.2/contexts/status", func(ctx context.Context) error {
		res, err := c.ws.CommandExecution.ContextStatus(ctx, compute.ContextStatusRequest{
			ClusterId: clusterID,
			ContextId: contextID,
		})
		if err != nil {
			return err
		}
		status = string(res.Status)
		return nil
	})
	return status, err
}

// DestroyContext destroys an execution context.
func (c *Client) DestroyContext(ctx context.Context, clusterID, contextID string) error {
	return c.call(ctx, http.MethodPost, "/api/1.2/contexts/destroy", func(ctx context.Context) error {
		return c.ws.CommandExecution.Destroy(ctx, compute.DestroyContext{ClusterId: clusterID, ContextId: contextID})
	})
}

// Execute starts command in an execution context and returns the command id.
func (c *Client) Execute(ctx context.Context, clusterID, contextID, language, command string) (string, error) {
	var id string
	err := c.call(ctx, http.MethodPost, "/api/1.2/commands/execute", func(ctx context.Context) error {
		wait, err := c.ws.CommandExecution.Execute(ctx, compute.Command{
			ClusterId: clusterID,
			ContextId: contextID,
			Language:  compute.Language(language),
			Command:   command,
		})
		if err != nil {
			return err
		}
		id = wait.Response.Id
		return nil
	})
	return id, err
}

// CommandStatus returns the status of a command.
func (c *Client) CommandStatus(ctx context.Context, clusterID, contextID, commandID string) (CommandStatus, error) {
	var status CommandStatus
	err := c.call(ctx, http.MethodGet, "/api/1.2/commands/status", func(ctx context.Context) error {
		res, err := c.ws.CommandExecution.CommandStatus(ctx, compute.CommandStatusRequest{
			ClusterId: clusterID,
			ContextId: contextID,
			CommandId: commandID,
		})
		if err != nil {
			return err
		}

		status = CommandStatus{ID: res.Id, Status: string(res.Status)}
		if r := res.Results; r != nil {
			status.Results = &CommandResults{
				ResultType: string(r.ResultType),
				Data:       r.Data,
				Summary:    r.Summary,
				Cause:      r.Cause,
			}
		}
		return nil
	})
	return status, err
}

// WaitContextRunning waits until an execution context can run commands.
func (c *Client) WaitContextRunning(ctx context.Context, clusterID, contextID string) error {
	return c.poll(ctx, func() (bool, error) {
		status, err := c.ContextStatus(ctx, clusterID, contextID)
		if err != nil {
			return false, err
		}

		switch status {
		case ContextStatusRunning:
			return true, nil
		case ContextStatusError:
			return false, errors.Wrapf(ErrCommandFailed, "execution context %v failed", contextID)
		default:
			return false, nil
		}
	})
}

// WaitCommand waits until a command reaches a terminal state. A command that was cancelled or
// produced an error result returns ErrCommandFailed.
func (c *Client) WaitCommand(ctx context.Context, clusterID, contextID, commandID string) (CommandStatus, error) {
	var status CommandStatus
	err := c.poll(ctx, func() (bool, error) {
		var err error
		if status, err = c.CommandStatus(ctx, clusterID, contextID, commandID); err != nil {
			return false, err
		}

		switch status.Status {
		case CommandStatusFinished, CommandStatusCancelled, CommandStatusError:
			return true, nil
		default:
			return false, nil
		}
	})
	if err != nil {
		return CommandStatus{}, err
	}

	if status.Status != CommandStatusFinished {
		return status, errors.Wrapf(ErrCommandFailed, "command %v: %v", commandID, status.Status)
	}
	if status.Results != nil && status.Results.ResultType == ResultTypeError {
		return status, errors.Wrapf(ErrCommandFailed, "%v: %v", status.Results.Summary, status.Results.Cause)
	}
	return status, nil
}

// CommandRunner runs commands on one cluster in a single execution context.
type CommandRunner struct {
	client    *Client
	clusterID string
	contextID string
	language  string
}

// NewCommandRunner creates an execution context for language on clusterID and waits until it can
// run commands. Close must be called to release the context.
func (c *Client) NewCommandRunner(ctx context.Context, clusterID, language string) (*CommandRunner, error) {
	contextID, err := c.CreateContext(ctx, clusterID, language)
	if err != nil {
		return nil, errors.Wrap(err, "create execution context")
	}

	runner := &CommandRunner{client: c, clusterID: clusterID, contextID: contextID, language: language}
	if err := c.WaitContextRunning(ctx, clusterID, contextID); err != nil {
		_ = runner.Close(ctx)
		return nil, err
	}

	return runner, nil
}

// Run executes command and waits for its results.
func (r *CommandRunner) Run(ctx context.Context, command string) (CommandResults, error) {
	commandID, err := r.client.Execute(ctx, r.clusterID, r.contextID, r.language, command)
	if err != nil {
		return CommandResults{}, err
	}

	status, err := r.client.WaitCommand(ctx, r.clusterID, r.contextID, commandID)
	if err != nil {
		return CommandResults{}, err
	}

	if status.Results == nil {
		return CommandResults{}, nil
	}
	return *status.Results, nil
}

// Close destroys the execution context.
func (r *CommandRunner) Close(ctx context.Context) error {
	return r.client.DestroyContext(ctx, r.clusterID, r.contextID)
}
