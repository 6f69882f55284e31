// Package config loads layered JSON (or YAML) configuration files.
//
// Files are read in order and merged at the top level: a key defined in a
// later file replaces the whole value of the same key from earlier files.
// Missing files are skipped, which lets an application ship a committed
// .config.json and an optional, git-ignored .local.json.
//
// Lookups never fail. [Config.Get] returns a [gjson.Result] whose Exists
// method reports whether the key was present:
//
//	cfg, err := config.Load([]string{".config.json", ".local.json"},
//	    config.WithEnvPrefix("APP"),
//	)
//	if err != nil {
//	    return err
//	}
//	tz := cfg.String("timezone", "UTC")
//	if cfg.Get("db").Exists() {
//	    // ...
//	}
//
// With an env prefix configured, APP_SESSION_STORE overrides "session.store".
//
// Typed access goes through [Config.Decode] and [Config.DecodeKey], which use
// viper and mapstructure tags. [Config.Settings] decodes the keys the
// framework itself understands.
package config
