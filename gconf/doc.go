/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension keeps a single configuration object under a "_c:" prefixed
key made of its package name. Configuration is loaded from the genesis file
with InitConfig, where all values are expected under opts["conf"][pkg].

Extensions that can run with sensible defaults use LoadOrDefault so that a
missing configuration is not an error.
*/
package gconf
