// Package mqtt connects the codec pipeline to an MQTT broker.
//
// This package manages:
//   - Connection with auto-reconnect and subscription restore
//   - Publishing with QoS and a 1MB payload cap
//   - A retained status topic with Last Will and Testament
//   - The topic tree shared by the pipeline (see Topics)
//
// # Architecture
//
//	field gateway → {prefix}/raw/{dp} → plccodec → {prefix}/value/{dp}
//	knxd relay    → {prefix}/knxd     ↗          ↘ {prefix}/error/{dp}
//
// # Usage
//
//	topics := mqtt.NewTopics(cfg.Pipeline.TopicPrefix)
//	client, err := mqtt.Connect(cfg.MQTT, topics)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Use TLS (mqtt.broker.tls) outside a trusted network. Payloads are not
// encrypted beyond the transport.
package mqtt
