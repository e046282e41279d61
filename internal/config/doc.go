// Package config loads and watches the retort validator configuration file
// (config.yaml).
//
// Top-level types:
//   - Config{Server, Log, Lethality, Extraction, AuditLog}
//   - LethalityConfig: reference_temp, z_value, floor (practical|canonical),
//     floor_temp, hold_policy (consecutive|total), min_hold_temp,
//     min_hold_minutes. Core() converts it to lethality.Config.
//   - ExtractionConfig: marker, header_keyword, threshold, min_count,
//     fallback_column, pressure_min_count. Options() converts it to
//     extract.Options.
//
// Load(path) reads the YAML file, applies defaults, then validates. The
// lethality floor has no default: it changes results for every sample between
// the canonical zero crossing and 90 C, so it must be written down.
//
// Watch(ctx, path, onChange) uses fsnotify to reload the file on write.
package config
