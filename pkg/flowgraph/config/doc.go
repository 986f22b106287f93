/*
Package config loads flowchat configuration.

Two layers:

Config wraps a map[string]any decoded from YAML or JSON and offers typed
accessors with defaults. Keys may be dotted paths into nested sections:

	cfg, err := config.FromFile("flowchat.yaml")
	timeout := cfg.Duration("llm.timeout", 30*time.Second)
	store := cfg.Section("store")

Settings is the typed application configuration. Load applies, in
increasing precedence, the defaults, the optional file, and environment
variables (OPENAI_API_KEY, FLOWCHAT_MODEL, FLOWCHAT_PROVIDER, FLOWCHAT_STORE,
FLOWCHAT_STORE_PATH, FLOWCHAT_REDIS_ADDR, FLOWCHAT_LOG_LEVEL,
FLOWCHAT_LOG_FORMAT, FLOWCHAT_METRICS):

	s, err := config.Load(path) // path may be ""

A file looks like:

	llm:
	  provider: openai
	  model: gpt-4o-mini
	  timeout: 45s
	store:
	  kind: sqlite
	  path: ~/.flowchat/threads.db
	driver:
	  approvals: [yes, ok, ship it]

API keys belong in the environment, not in the file.

Config and Settings are safe for concurrent reads.
*/
package config
