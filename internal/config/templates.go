package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# mt5-guard configuration

[bridge]
# REST endpoint of the terminal bridge
url = "http://127.0.0.1:6542"
# Optional websocket quote stream; leave empty to poll
stream_url = ""
timeout = "5s"

[guard]
# Interval between guard cycles
interval = "2s"
# Timeout applied to every venue call within a cycle
call_timeout = "5s"
# Maximum age a cached quote is served without a refresh
quote_ttl = "2s"

[fillmode]
# Prefer immediate-or-cancel at or below this volume (0 disables)
small_volume_max = 0.1

# Preferred fill mode per instrument class. Modes: RETURN, IOC, FOK.
[fillmode.preferred]
forex = "IOC"
metal = "FOK"
index = "RETURN"

# Symbol classification rules, first match wins. Edit to match your
# broker's symbol naming.
[[fillmode.classes]]
class = "metal"
prefixes = ["XAU", "XAG", "XPT", "XPD"]

[[fillmode.classes]]
class = "index"
contains = ["US30", "US500", "NAS100", "GER40", "UK100", "JP225"]

[[fillmode.classes]]
class = "forex"
prefixes = ["EUR", "GBP", "USD", "AUD", "NZD", "CHF", "CAD", "JPY"]

[store]
# SQLite database for trailing registrations and the action journal
#path = "~/.config/mt5-guard/guard.db"

[logging]
level = "info"
console = true
file = true
#file_path = "~/.config/mt5-guard/logs/guard.log"
max_size = 50
max_backups = 5
max_age = 30
`

// writeTemplate creates the config directory and a commented template so
// a first run leaves something editable behind.
func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}
