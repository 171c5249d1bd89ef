// Package configuration defines the pipeline configuration model read from a Pushcart
// configuration directory. A configuration describes the stages of a data pipeline: sources,
// transformations and destinations, plus an optional cluster definition. Configurations are
// decoded from generic documents loaded from JSON, TOML or YAML files and validated before use.
package configuration
