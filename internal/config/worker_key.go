package config

type WorkerKeyStruct struct {
	AnswerTrailQueue string
}

var WorkerKey = &WorkerKeyStruct{
	AnswerTrailQueue: "persist_answer_trail_queue",
}
