// Package eventsinks provides dbhooks listeners that forward before and after events to a broker.
//
// KafkaSink writes one message per event to a Kafka topic, RedisSink publishes one message per event
// to a Redis pub/sub channel named after the operation key. Both encode the same JSON Message.
//
// Example usage:
//
//	writer, err := eventsinks.NewKafkaWriter([]string{"localhost:9092"})
//	sink, err := eventsinks.NewKafkaSink(writer, "db-events")
//	client.OnAfterHookForAll(dbhooks.AllOperations, sink.Listener(dbhooks.After))
//
// Delivery failures are returned from the listener, so the EventController logs and counts them
// without affecting the database operation.
package eventsinks
