package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Miner kind being served: prompt, embed or video.
	// example: prompt
	Miner string `json:"miner" example:"prompt"`
	// Pretrained model name the miner was started with.
	// example: sambanovasystems/BLOOMChat-176B-v1
	Model string `json:"model" example:"sambanovasystems/BLOOMChat-176B-v1"`
	// Device placement string.
	// example: cuda:0
	Device string `json:"device" example:"cuda:0"`
	// Current queue length for incoming requests.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Number of in-flight requests currently being processed.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Maximum queued requests allowed before backpressure triggers.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// Total requests served since start.
	// example: 120
	ServedTotal uint64 `json:"served_total" example:"120"`
	// Total requests refused by the blacklist hook.
	// example: 0
	BlacklistedTotal uint64 `json:"blacklisted_total" example:"0"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Last error observed while serving (if any).
	LastError string `json:"last_error,omitempty"`
}
