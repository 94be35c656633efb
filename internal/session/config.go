// Package session is the reference C9 transport: a gorilla/websocket
// upgrade handler dispatching the message families of spec.md §6 to
// the simulation core, and the `send`/`broadcast` implementation the
// core's Broadcaster contract (spec.md §4.9) is written against.
package session

import "github.com/spf13/viper"

// configuration :
// Tunables for the session transport, read once from viper keys under
// "Session.*".
//
// The `Port` is the TCP port the upgrade endpoint listens on.
//
// The `SendBufferSize` bounds each connection's outbound queue; once
// full, `Send` drops the message for that recipient and counts it
// rather than blocking (spec.md §5's backpressure policy).
//
// The `WriteTimeoutMs`/`ReadTimeoutMs` bound a single frame's
// write/read, matching spec.md §5's "total timeout (default 5s) on
// incoming-frame reads".
//
// The `PingIntervalMs` is how often a ping control frame is sent to
// detect a half-open connection.
//
// The `RequestsPerSecond`/`RequestBurst` bound how fast a single
// connection's inbound frames are dispatched (spec.md §5's
// backpressure policy applies both directions: a slow reader gets
// dropped outbound messages, a fast/abusive sender gets its requests
// throttled rather than allowed to monopolize a world-loop tick).
type configuration struct {
	Port int

	SendBufferSize int
	WriteTimeoutMs int
	ReadTimeoutMs  int
	PingIntervalMs int

	RequestsPerSecond float64
	RequestBurst      int

	MinUsernameLength int
	MaxUsernameLength int
	MinPasswordLength int
	MaxPasswordLength int
}

func parseConfiguration() configuration {
	config := configuration{
		Port:           8081,
		SendBufferSize: 64,
		WriteTimeoutMs: 5000,
		ReadTimeoutMs:  5000,
		PingIntervalMs: 30000,

		RequestsPerSecond: 20,
		RequestBurst:      40,

		MinUsernameLength: 3,
		MaxUsernameLength: 32,
		MinPasswordLength: 8,
		MaxPasswordLength: 128,
	}

	if viper.IsSet("Session.Port") {
		config.Port = viper.GetInt("Session.Port")
	}
	if viper.IsSet("Session.SendBufferSize") {
		config.SendBufferSize = viper.GetInt("Session.SendBufferSize")
	}
	if viper.IsSet("Session.WriteTimeoutMs") {
		config.WriteTimeoutMs = viper.GetInt("Session.WriteTimeoutMs")
	}
	if viper.IsSet("Session.ReadTimeoutMs") {
		config.ReadTimeoutMs = viper.GetInt("Session.ReadTimeoutMs")
	}
	if viper.IsSet("Session.PingIntervalMs") {
		config.PingIntervalMs = viper.GetInt("Session.PingIntervalMs")
	}
	if viper.IsSet("Session.RequestsPerSecond") {
		config.RequestsPerSecond = viper.GetFloat64("Session.RequestsPerSecond")
	}
	if viper.IsSet("Session.RequestBurst") {
		config.RequestBurst = viper.GetInt("Session.RequestBurst")
	}
	if viper.IsSet("Session.MinUsernameLength") {
		config.MinUsernameLength = viper.GetInt("Session.MinUsernameLength")
	}
	if viper.IsSet("Session.MaxUsernameLength") {
		config.MaxUsernameLength = viper.GetInt("Session.MaxUsernameLength")
	}
	if viper.IsSet("Session.MinPasswordLength") {
		config.MinPasswordLength = viper.GetInt("Session.MinPasswordLength")
	}
	if viper.IsSet("Session.MaxPasswordLength") {
		config.MaxPasswordLength = viper.GetInt("Session.MaxPasswordLength")
	}

	return config
}
