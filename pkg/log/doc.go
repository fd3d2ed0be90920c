/*
Package log provides structured logging built on zerolog.

A single global Logger is configured once via Init and read from
everywhere else in the module. Component and entity loggers
(WithComponent, WithProtocolID, WithRunID, WithStepID) attach
context fields without threading a logger through every call.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	schedLog := log.WithComponent("scheduler")
	schedLog.Info().Int64("protocol_id", 7).Msg("launched")
*/
package log
