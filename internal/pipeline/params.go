package pipeline

import "github.com/JaimeStill/snare/pkg/gateway"

// Task identifies one kind of completion request the pipeline makes.
type Task string

const (
	TaskClassify   Task = "classify"
	TaskBait       Task = "bait"
	TaskAnswer     Task = "answer"
	TaskFuse       Task = "fuse"
	TaskAdjudicate Task = "adjudicate"
	TaskFollowUp   Task = "followup"
	TaskNeutralize Task = "neutralize"
)

func Tasks() []Task {
	return []Task{
		TaskClassify,
		TaskBait,
		TaskAnswer,
		TaskFuse,
		TaskAdjudicate,
		TaskFollowUp,
		TaskNeutralize,
	}
}

// Params holds sampling parameters per task.
type Params map[Task]gateway.Params

func DefaultParams() Params {
	return Params{
		TaskClassify:   {Temperature: 0.7, MaxTokens: 500},
		TaskBait:       {Temperature: 0.7, MaxTokens: 800},
		TaskAnswer:     {Temperature: 0.7, MaxTokens: 500},
		TaskFuse:       {Temperature: 0.5, MaxTokens: 1000},
		TaskAdjudicate: {Temperature: 0.3, MaxTokens: 500},
		TaskFollowUp:   {Temperature: 0.7, MaxTokens: 800},
		TaskNeutralize: {Temperature: 0.7, MaxTokens: 500},
	}
}

// For returns the parameters for t, falling back to the default.
func (p Params) For(t Task) gateway.Params {
	if v, ok := p[t]; ok {
		return v
	}
	return DefaultParams()[t]
}
