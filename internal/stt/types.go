package stt

import "errors"

// ErrConnectionFailed indicates the streaming connection to the STT provider
// could not be established. This is fatal for the session.
var ErrConnectionFailed = errors.New("stt: failed to establish provider connection")

// EventHandler receives provider transcript notifications.
//
// OnTranscript is called for every transcript fragment with non-empty text.
// isFinal marks a finalized fragment; isSpeechFinal marks a provider-detected
// speech boundary on a finalized fragment. OnUtteranceEnd is called when the
// provider detects a silence-timeout utterance boundary with no accompanying
// transcript.
type EventHandler interface {
	OnTranscript(text string, isFinal, isSpeechFinal bool)
	OnUtteranceEnd()
}

// LiveTranscriber is the interface for streaming speech-to-text clients
type LiveTranscriber interface {
	// Start establishes the streaming transcription connection
	Start() error

	// SendAudio forwards a raw audio frame to the STT provider
	SendAudio(data []byte) error

	// KeepAlive sends an empty frame to hold the provider connection open
	// while the client is idle
	KeepAlive() error

	// Close finishes the transcription stream and releases the connection
	Close() error
}
