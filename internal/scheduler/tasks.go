package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskScoreBatch = "leadscoring.score_batch"

const TaskOffMarketBatch = "leadscoring.offmarket_batch"

// Trigger values recorded on batch payloads.
const (
	TriggerAPI      = "api"
	TriggerPeriodic = "periodic"
)

type ScoreBatchPayload struct {
	Zip     string `json:"zip,omitempty"`
	Trigger string `json:"trigger"`
}

type OffMarketBatchPayload struct {
	Trigger string `json:"trigger"`
}

func NewScoreBatchTask(payload ScoreBatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScoreBatch, data), nil
}

func ParseScoreBatchPayload(task *asynq.Task) (ScoreBatchPayload, error) {
	var payload ScoreBatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ScoreBatchPayload{}, err
	}
	return payload, nil
}

func NewOffMarketBatchTask(payload OffMarketBatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOffMarketBatch, data), nil
}

func ParseOffMarketBatchPayload(task *asynq.Task) (OffMarketBatchPayload, error) {
	var payload OffMarketBatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OffMarketBatchPayload{}, err
	}
	return payload, nil
}
