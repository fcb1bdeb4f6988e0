// Package influxdb records decoded datapoint values in InfluxDB.
//
// It wraps influxdb-client-go v2 with a non-blocking, batched write API.
// Each decoded value becomes one point in the "datapoint" measurement,
// tagged by datapoint name, protocol family and type. Structs and lists are
// flattened into one field per member.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteValue("flow_temp", desc, values.Float(21.5), time.Now())
//
// Write errors are delivered asynchronously through SetOnError. Connection
// and health check errors are returned directly.
package influxdb
