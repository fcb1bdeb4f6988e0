// Package pipeline decodes raw field frames arriving over MQTT and
// republishes them as typed values.
//
//	{prefix}/raw/{datapoint} ──┐
//	                           ├─▶ catalog lookup ─▶ codec ─▶ {prefix}/value/{datapoint} (JSON, retained)
//	{prefix}/knxd ─────────────┘    (name or GA)        │    {prefix}/cbor/{datapoint}  (CBOR, retained)
//	                                                    │    {prefix}/error/{datapoint} (JSON)
//	                                                    └──▶ InfluxDB, websocket subscribers
//
// Raw payloads are the device bytes exactly as read: register contents for
// Modbus datapoints, the APDU data for KNX ones. The knxd topic carries
// complete knxd group packets; their destination group address selects the
// datapoint.
package pipeline
