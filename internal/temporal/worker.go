// Package temporal implements worker registration for Temporal workflows.
package temporal

import (
	"log/slog"

	"go.temporal.io/sdk/worker"
)

// WorkerConfig contains worker configuration.
type WorkerConfig struct {
	TaskQueue string
}

// RegisterWorkflows registers all workflow definitions.
func RegisterWorkflows(w worker.Worker) {
	w.RegisterWorkflow(ExtractEventWorkflow)
	w.RegisterWorkflow(CategorizeArticleWorkflow)
}

// RegisterActivities registers the classifier-bound activity methods.
// Registering the struct registers every exported method on it under its
// own name, which is what ExtractEventWorkflow/CategorizeArticleWorkflow
// reference via ExtractEventActivityName/CategorizeArticleActivityName.
func RegisterActivities(w worker.Worker, activities *Activities) {
	w.RegisterActivity(activities)
}

// StartWorker starts the Temporal worker.
func StartWorker(logger *slog.Logger, client *Client, config WorkerConfig, activities *Activities) (worker.Worker, error) {
	logger.Info("starting Temporal worker", "task_queue", config.TaskQueue)

	w := worker.New(client.client, config.TaskQueue, worker.Options{})

	RegisterWorkflows(w)
	RegisterActivities(w, activities)

	if err := w.Start(); err != nil {
		logger.Error("failed to start worker", "error", err)
		return nil, err
	}

	logger.Info("worker started successfully")
	return w, nil
}
