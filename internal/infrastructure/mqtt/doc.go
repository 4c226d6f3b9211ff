// Package mqtt provides the broker connection for the state republish sink.
//
// It wraps paho.mqtt.golang with connection management, automatic
// reconnection with exponential backoff, Last Will and Testament for
// offline detection, and a retained-publish surface. The panel never
// subscribes; it only mirrors entity snapshots out as retained topics.
package mqtt
