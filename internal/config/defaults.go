package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Catalog.DatabasePath == "" {
		cfg.Catalog.DatabasePath = "/usr/local/var/collectsearch/data/catalog.db"
	}
	if cfg.Search.MinQueryLength == 0 {
		cfg.Search.MinQueryLength = 2
	}
	if cfg.Search.DebounceMs == 0 {
		cfg.Search.DebounceMs = 250
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 15
	}
	if cfg.Search.FetchLimit == 0 {
		cfg.Search.FetchLimit = 50
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 100
	}
	if cfg.Cache.SweepIntervalMs == 0 {
		cfg.Cache.SweepIntervalMs = 120000
	}
	// Reference data changes rarely; card and product availability churns.
	if cfg.Cache.TTLSecs.Set == 0 {
		cfg.Cache.TTLSecs.Set = 900
	}
	if cfg.Cache.TTLSecs.Category == 0 {
		cfg.Cache.TTLSecs.Category = 900
	}
	if cfg.Cache.TTLSecs.SetProduct == 0 {
		cfg.Cache.TTLSecs.SetProduct = 600
	}
	if cfg.Cache.TTLSecs.Card == 0 {
		cfg.Cache.TTLSecs.Card = 300
	}
	if cfg.Cache.TTLSecs.Product == 0 {
		cfg.Cache.TTLSecs.Product = 180
	}
}
