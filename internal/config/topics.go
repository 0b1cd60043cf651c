package config

const (
	// TopicTranscriptIngest is the NSQ topic for asynchronous transcript ingestion.
	TopicTranscriptIngest = "transcript.ingest"

	// ChannelTranscriptWorker is the consumer channel of the ingestion worker.
	ChannelTranscriptWorker = "backend"
)
