package settings

import (
	"github.com/go-logr/logr"
	"github.com/spf13/afero"
)

// JobSettings resolves the settings of the job scheduling a pipeline.
type JobSettings struct {
	fs        afero.Fs
	configDir string
	log       logr.Logger
}

// NewJobSettings creates a JobSettings reading from configDir.
func NewJobSettings(fs afero.Fs, configDir string, logger logr.Logger) JobSettings {
	return JobSettings{fs: fs, configDir: configDir, log: logger.WithName("job-settings")}
}

// Load returns the job settings of a pipeline. They are read from the pipeline's _job_settings
// file, or defaulted to a job running the pipeline every four hours. The job is named after the
// pipeline and every pipeline task points at pipelineID. Settings without any task get a single
// task running the pipeline.
func (j JobSettings) Load(catalog, schema, pipeline, pipelineID string) (map[string]interface{}, error) {
	doc, err := loadOptional(j.fs, j.log, pipelineDir(j.configDir, catalog, schema, pipeline), JobSettingsFile)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return DefaultJobSettings(pipeline, pipelineID), nil
	}

	doc["name"] = pipeline

	tasks, _ := doc["tasks"].([]interface{})
	if len(tasks) == 0 {
		doc["tasks"] = []interface{}{
			map[string]interface{}{
				"task_key":      pipeline,
				"pipeline_task": map[string]interface{}{"pipeline_id": pipelineID},
			},
		}
		return doc, nil
	}

	for _, t := range tasks {
		task, ok := t.(map[string]interface{})
		if !ok {
			continue
		}

		if key, _ := task["task_key"].(string); key == "" {
			task["task_key"] = pipeline
		}

		if pipelineTask, ok := task["pipeline_task"].(map[string]interface{}); ok {
			pipelineTask["pipeline_id"] = pipelineID
		}
	}

	return doc, nil
}

// DefaultJobSettings returns settings of a job running pipelineID every four hours.
func DefaultJobSettings(pipeline, pipelineID string) map[string]interface{} {
	return map[string]interface{}{
		"name":                pipeline,
		"max_concurrent_runs": 1,
		"tasks": []interface{}{
			map[string]interface{}{
				"task_key":        pipeline,
				"timeout_seconds": 0,
				"pipeline_task": map[string]interface{}{
					"pipeline_id":  pipelineID,
					"full_refresh": "false",
				},
			},
		},
		"schedule": map[string]interface{}{
			"quartz_cron_expression": "0 0 0/4 ? * * *",
			"timezone_id":            "GMT",
			"pause_status":           "UNPAUSED",
		},
		"email_notifications": map[string]interface{}{},
		"format":              "MULTI_TASK",
	}
}
