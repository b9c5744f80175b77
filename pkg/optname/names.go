package optname

const (
	ConnTimeout  = "connect-timeout"
	LogFile      = "log-file"
	LoggingLevel = "log-level"
	MaxWorkers   = "max-workers"
	OutputDir    = "output-dir"
	ReadTimeout  = "read-timeout"
	RetryCount   = "retry-count"
	RetryDelay   = "retry-delay"
	Verbose      = "verbose"
)
