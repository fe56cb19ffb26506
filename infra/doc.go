// Package infra contains technical adapters such as the MQTT client, the
// metrics sinks, the SQLite user database and error reporting. These
// packages should depend only on the interfaces defined in the core packages.
package infra
