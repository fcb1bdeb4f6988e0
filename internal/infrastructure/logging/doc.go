// Package logging provides structured logging for the codec service.
//
// It wraps log/slog with JSON or text output, level filtering and default
// service/version fields. The "file" output rotates through lumberjack.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "file"     # stdout, stderr, file
//	  file:
//	    path: /var/log/plccodec/plccodec.log
//	    max_size: 100    # megabytes
//	    max_backups: 5
//	    max_age: 30      # days
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	defer logger.Close()
//	logger.Info("decoded", "datapoint", name, "code", code)
//
// Never log secrets, tokens, or client secrets.
package logging
